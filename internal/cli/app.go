package cli

import (
	"net/http"
	"net/url"

	"github.com/bodycomp/bodycomp/internal/callback"
	"github.com/bodycomp/bodycomp/internal/config"
	"github.com/bodycomp/bodycomp/internal/importer"
	"github.com/bodycomp/bodycomp/internal/logging"
	"github.com/bodycomp/bodycomp/internal/store"
	"github.com/bodycomp/bodycomp/internal/withings"
)

// app bundles the object graph every command needs: config, logger, and
// constructors for the session manager, fetcher and importer.
type app struct {
	cfg    *config.Config
	loader *config.Loader
	logger *logging.Logger
}

func newApp() (*app, error) {
	loader := config.NewLoader(globalFlags.Config)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if globalFlags.DataDir != "" {
		cfg.Data.Dir = globalFlags.DataDir
	}

	level := logging.LogLevel(cfg.Log.Level)
	if level == "" {
		level = logging.LevelInfo
	}
	if globalFlags.Verbose {
		level = logging.LevelDebug
	}

	return &app{
		cfg:    cfg,
		loader: loader,
		logger: logging.NewLogger(logging.WithLevel(level)),
	}, nil
}

func (a *app) tokenStore() *withings.TokenStore {
	return withings.NewTokenStore(a.cfg.TokenDir())
}

// sessionManager wires the OAuth session manager with the loopback
// callback receiver bound to the configured redirect URI.
func (a *app) sessionManager() (*withings.Auth, error) {
	port, err := a.cfg.RedirectPort()
	if err != nil {
		return nil, err
	}

	path := "/callback"
	if u, err := url.Parse(a.cfg.Withings.RedirectURI); err == nil && u.Path != "" {
		path = u.Path
	}

	receiver := callback.NewReceiver(port, path, a.logger)
	httpClient := &http.Client{Timeout: a.cfg.Withings.HTTPTimeout}

	return withings.NewAuth(
		a.cfg.Withings.ClientID,
		a.cfg.Withings.ClientSecret,
		a.cfg.Withings.RedirectURI,
		a.tokenStore(),
		systemBrowser{},
		receiver,
		a.logger,
		withings.WithAuthTimeout(a.cfg.Withings.AuthTimeout),
		withings.WithHTTPClient(httpClient),
	), nil
}

func (a *app) measurementStore() *store.CSV {
	return store.NewCSV(a.cfg.StorePath(), a.logger)
}

func (a *app) importer() (*importer.Importer, error) {
	auth, err := a.sessionManager()
	if err != nil {
		return nil, err
	}

	client := withings.NewClient(auth, a.logger,
		withings.WithClientHTTP(&http.Client{Timeout: a.cfg.Withings.HTTPTimeout}))

	return importer.New(client, a.measurementStore(), a.logger), nil
}
