package consent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

const defaultCallbackPath = "/callback"

// Listener is a loopback Presenter for CLI and desktop front-ends: it binds
// a local HTTP server, hands the consent URL to an Open hook (typically a
// browser launcher), and resolves when the bank redirects to the local
// callback route.
//
// Its RedirectURL must be whitelisted in the control panel for the
// application.
type Listener struct {
	ln   net.Listener
	path string

	// Open launches the consent URL in the user's browser. When nil the
	// caller is expected to surface the URL itself before Present is
	// invoked.
	Open func(url string) error

	mu        sync.Mutex
	presented bool
}

// NewListener binds addr (e.g. "127.0.0.1:8585", or port 0 for an ephemeral
// port) and registers path as the callback route. Close releases the port.
func NewListener(addr, path string) (*Listener, error) {
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	if path == "" {
		path = defaultCallbackPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind callback listener: %w", err)
	}
	return &Listener{ln: ln, path: path}, nil
}

// RedirectURL is the local URL the bank should redirect to.
func (l *Listener) RedirectURL() string {
	return "http://" + l.ln.Addr().String() + l.path
}

// Close releases the listening socket.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Present serves the callback route until the redirect arrives or ctx is
// cancelled, returning the full callback URL. A Listener presents at most
// one flow.
func (l *Listener) Present(ctx context.Context, consentURL string) (string, error) {
	l.mu.Lock()
	if l.presented {
		l.mu.Unlock()
		return "", errors.New("listener already presented a flow")
	}
	l.presented = true
	l.mu.Unlock()

	callbacks := make(chan string, 1)

	r := chi.NewRouter()
	r.Get(l.path, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "Consent received. You can return to the application.")
		select {
		case callbacks <- "http://" + l.ln.Addr().String() + req.URL.RequestURI():
		default:
		}
	})

	srv := &http.Server{Handler: r}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(l.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer srv.Close()

	if l.Open != nil {
		if err := l.Open(consentURL); err != nil {
			return "", fmt.Errorf("open consent url: %w", err)
		}
	}

	select {
	case cb := <-callbacks:
		return cb, nil
	case err := <-serveErr:
		return "", fmt.Errorf("callback listener: %w", err)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
