package gdocs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
)

// DefaultLoopbackPorts are tried in order for the authorization redirect.
// Port 0 picks any free port when 8080 is taken.
var DefaultLoopbackPorts = []int{8080, 0}

// LoopbackFlow runs the installed-app authorization code flow: it opens the
// consent page in a browser and receives the code on a local redirect.
type LoopbackFlow struct {
	// Ports to try for the local redirect listener.
	Ports []int

	// OpenURL opens the consent page. Defaults to the system browser.
	OpenURL func(url string) error

	// Timeout bounds how long to wait for the user.
	Timeout time.Duration

	Logger hclog.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Run obtains a token for cfg. cfg.RedirectURL is set to the local listener.
func (f *LoopbackFlow) Run(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	logger := f.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	openURL := f.OpenURL
	if openURL == nil {
		openURL = browser.OpenURL
	}
	ports := f.Ports
	if len(ports) == 0 {
		ports = DefaultLoopbackPorts
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	ln, err := listenLoopback(ports)
	if err != nil {
		return nil, err
	}

	port := ln.Addr().(*net.TCPAddr).Port
	redirected := *cfg
	redirected.RedirectURL = fmt.Sprintf("http://localhost:%d/", port)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callbackResult, 1)

	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("authorization callback server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := redirected.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)
	logger.Info("waiting for authorization in browser", "redirect_url", redirected.RedirectURL)
	if err := openURL(authURL); err != nil {
		logger.Warn("could not open browser, visit the URL manually", "url", authURL, "error", err)
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization not completed: %w", ctx.Err())
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := redirected.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("error exchanging authorization code: %w", err)
	}
	return tok, nil
}

func listenLoopback(ports []int) (net.Listener, error) {
	var lastErr error
	for _, port := range ports {
		ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return ln, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("error starting authorization callback listener: %w", lastErr)
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("code") == "" && q.Get("error") == "" {
			http.NotFound(w, r)
			return
		}

		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = errors.New("authorization callback state mismatch")
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "Authorization complete. You may close this window.")
		}

		select {
		case results <- res:
		default:
		}
	})
}
