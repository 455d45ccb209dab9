package internal

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/menuboard/internal/backend"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	logOutput  io.Writer
	httpClient *http.Client
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput redirects the JSON log stream. The MCP server logs to stderr
// because stdout carries the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithHTTPClient sets the client used to reach the hosted backend.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *application) {
		a.httpClient = hc
	}
}

func (a *application) newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
}

func (app *application) newBackend() *backend.Client {
	var opts []backend.Option
	if app.httpClient != nil {
		opts = append(opts, backend.WithHTTPClient(app.httpClient))
	}
	return backend.New(backend.Config{
		URL:            app.config.Backend.URL,
		AnonKey:        app.config.Backend.AnonKey,
		ServiceRoleKey: app.config.Backend.ServiceRoleKey,
		Bucket:         app.config.Backend.Bucket,
	}, opts...)
}
