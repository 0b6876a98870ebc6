package internal

import (
	"io"

	"github.com/f2023065371-lang/fazal-portfolio/internal/render"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	loader  render.Loader
	version string
	stdout  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithRendererLoader replaces the PDF renderer built from the config.
func WithRendererLoader(l render.Loader) Option {
	return func(a *application) {
		a.loader = l
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithOutput redirects command output that would go to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}
