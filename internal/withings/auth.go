package withings

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/bodycomp/bodycomp/internal/errors"
	"github.com/bodycomp/bodycomp/internal/logging"
	"github.com/bodycomp/bodycomp/internal/models"
)

// Vendor endpoints. The token endpoint is shared by the initial code
// exchange and the refresh exchange, multiplexed on the action and
// grant_type form fields.
const (
	BaseURL      = "https://wbsapi.withings.com"
	AuthorizeURL = "https://account.withings.com/oauth2_user/authorize2"
	TokenURL     = BaseURL + "/v2/oauth2"
)

// Scopes required for reading body metrics.
var Scopes = []string{"user.metrics", "user.info.read"}

// tokenLookahead is the buffer before actual expiry during which a token
// is proactively treated as expired and refreshed.
const tokenLookahead = 60 * time.Second

// DefaultAuthTimeout bounds the wait for the browser redirect.
const DefaultAuthTimeout = 300 * time.Second

// BrowserOpener launches the user's browser at the authorization URL.
// The CLI supplies a real implementation; tests supply a fake.
type BrowserOpener interface {
	Open(url string) error
}

// CodeReceiver blocks until the authorization code arrives on the
// loopback redirect, or the timeout elapses.
type CodeReceiver interface {
	Receive(ctx context.Context, timeout time.Duration) (string, error)
}

// Auth owns the OAuth token lifecycle: initial authorization-code
// exchange, refresh, expiry detection and re-authentication fallback.
// It holds a single in-memory token slot backed by the TokenStore.
type Auth struct {
	clientID     string
	clientSecret string
	redirectURI  string
	authTimeout  time.Duration
	tokenURL     string

	store    *TokenStore
	browser  BrowserOpener
	receiver CodeReceiver
	client   *http.Client
	logger   *logging.Logger

	token *models.Token
}

// AuthOption configures an Auth.
type AuthOption func(*Auth)

// WithAuthTimeout overrides the wait for the browser redirect.
func WithAuthTimeout(d time.Duration) AuthOption {
	return func(a *Auth) {
		if d > 0 {
			a.authTimeout = d
		}
	}
}

// WithHTTPClient overrides the HTTP client used for token exchanges.
func WithHTTPClient(c *http.Client) AuthOption {
	return func(a *Auth) {
		a.client = c
	}
}

// WithTokenEndpoint points token exchanges at a different URL. Tests use
// it to stand in a local server for the vendor.
func WithTokenEndpoint(url string) AuthOption {
	return func(a *Auth) {
		a.tokenURL = url
	}
}

// NewAuth creates a session manager for the given app registration.
func NewAuth(clientID, clientSecret, redirectURI string, store *TokenStore, browser BrowserOpener, receiver CodeReceiver, logger *logging.Logger, opts ...AuthOption) *Auth {
	a := &Auth{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		authTimeout:  DefaultAuthTimeout,
		store:        store,
		browser:      browser,
		receiver:     receiver,
		client:       &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		tokenURL:     TokenURL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Token returns a token guaranteed usable for at least the lookahead
// window. Repeated calls on a valid token make no network calls.
func (a *Auth) Token(ctx context.Context) (*models.Token, error) {
	if a.token == nil {
		stored, err := a.store.Load()
		if err != nil {
			return nil, err
		}
		a.token = stored
	}

	if !a.token.Valid() {
		return a.Authenticate(ctx)
	}

	if a.token.ExpiresWithin(tokenLookahead) {
		tok, err := a.Refresh(ctx)
		if err == nil {
			return tok, nil
		}
		a.logger.WarnWithContext(ctx, "token refresh failed, falling back to full authentication", "error", err.Error())
		return a.Authenticate(ctx)
	}

	return a.token, nil
}

// Authenticated reports whether a usable token is available locally,
// without touching the network.
func (a *Auth) Authenticated() bool {
	if a.token.Valid() {
		return true
	}
	stored, err := a.store.Load()
	if err != nil || stored == nil {
		return false
	}
	a.token = stored
	return true
}

// Invalidate drops the in-memory token slot only. The stored token is
// untouched; the next Token call reloads and revalidates it. Used by the
// measurement client's single 401 retry.
func (a *Auth) Invalidate() {
	a.token = nil
}

// Authenticate performs the full interactive flow: open the browser at
// the authorization URL, wait for the redirected code on the loopback
// receiver, then exchange the code for a token.
func (a *Auth) Authenticate(ctx context.Context) (*models.Token, error) {
	if a.clientID == "" {
		return nil, &errors.ErrMissingCredentials{Field: "client_id"}
	}
	if a.clientSecret == "" {
		return nil, &errors.ErrMissingCredentials{Field: "client_secret"}
	}

	authURL := a.AuthCodeURL()
	a.logger.InfoWithContext(ctx, "opening browser for authorization", "url", authURL)
	if err := a.browser.Open(authURL); err != nil {
		// The URL is still usable by hand; the receiver keeps waiting.
		a.logger.WarnWithContext(ctx, "could not open browser", "error", err.Error())
	}

	code, err := a.receiver.Receive(ctx, a.authTimeout)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("action", "requesttoken")
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", a.redirectURI)

	tok, err := a.exchange(ctx, form)
	if err != nil {
		return nil, err
	}

	if err := a.store.Save(tok); err != nil {
		return nil, err
	}
	a.token = tok
	a.logger.InfoWithContext(ctx, "authentication succeeded")
	return tok, nil
}

// Refresh exchanges the refresh token for a new access/refresh pair. On
// any failure the stored token is cleared so the next Token call falls
// back to a clean interactive authentication instead of looping on a
// dead refresh token.
func (a *Auth) Refresh(ctx context.Context) (*models.Token, error) {
	if a.token == nil {
		stored, err := a.store.Load()
		if err != nil {
			return nil, err
		}
		a.token = stored
	}
	if a.token == nil || a.token.RefreshToken == "" {
		return nil, &errors.ErrAuthentication{Reason: "no refresh token available"}
	}

	form := url.Values{}
	form.Set("action", "requesttoken")
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)
	form.Set("refresh_token", a.token.RefreshToken)

	tok, err := a.exchange(ctx, form)
	if err != nil {
		_ = a.store.Clear()
		a.token = nil
		return nil, err
	}

	if err := a.store.Save(tok); err != nil {
		return nil, err
	}
	a.token = tok
	return tok, nil
}

// AuthCodeURL builds the browser authorization URL.
func (a *Auth) AuthCodeURL() string {
	conf := &oauth2.Config{
		ClientID:    a.clientID,
		RedirectURL: a.redirectURI,
		Scopes:      Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthorizeURL,
			TokenURL: a.tokenURL,
		},
	}
	return conf.AuthCodeURL("")
}

// exchange posts a form-encoded token request. The vendor rejects
// query-encoded secrets, so the credentials always travel in the body.
func (a *Auth) exchange(ctx context.Context, form url.Values) (*models.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		if isTimeoutErr(err) {
			return nil, &errors.ErrTimeout{Operation: "token exchange", Err: err}
		}
		return nil, &errors.ErrAuthentication{Reason: "token endpoint unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ErrAuthentication{Reason: "reading token response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errors.ErrAuthentication{Reason: "token endpoint HTTP " + resp.Status}
	}

	return decodeTokenResponse(body, time.Now())
}

func isTimeoutErr(err error) bool {
	type timeout interface{ Timeout() bool }
	for e := err; e != nil; {
		if t, ok := e.(timeout); ok && t.Timeout() {
			return true
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}
