package callback

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bodycomp/bodycomp/internal/errors"
	"github.com/bodycomp/bodycomp/internal/logging"
)

const successPage = `<html><body><h1>Authentication successful!</h1><p>You can close this window now.</p></body></html>`

const errorPage = `<html><body><h1>Authentication failed</h1><p>The authorization code is missing. Please try again.</p></body></html>`

// Receiver is the short-lived loopback listener that captures the
// authorization code the browser is redirected to. It serves exactly one
// request and then stops listening. The vendor app registration requires
// a static redirect URI, so the port is fixed, not ephemeral.
type Receiver struct {
	port   int
	path   string
	logger *logging.Logger
}

// NewReceiver creates a receiver for the given redirect port and path.
func NewReceiver(port int, path string, logger *logging.Logger) *Receiver {
	if path == "" {
		path = "/callback"
	}
	return &Receiver{port: port, path: path, logger: logger}
}

// Receive blocks until the authorization code arrives, the timeout
// elapses, or ctx is cancelled. The listener runs on its own goroutine
// purely so the accept never deadlocks against the timeout; the handoff
// is a single write-once channel.
func (r *Receiver) Receive(ctx context.Context, timeout time.Duration) (string, error) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	codeCh := make(chan string, 1)
	var once sync.Once

	engine.GET(r.path, func(c *gin.Context) {
		code := c.Query("code")
		if code == "" {
			c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(errorPage))
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(successPage))
		once.Do(func() {
			codeCh <- code
		})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("localhost:%d", r.port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	r.logger.InfoWithContext(ctx, "waiting for authorization callback", "port", r.port, "path", r.path)

	select {
	case code := <-codeCh:
		return code, nil
	case err := <-errCh:
		return "", fmt.Errorf("callback listener failed: %w", err)
	case <-time.After(timeout):
		return "", &errors.ErrTimeout{Operation: "waiting for authorization code"}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
