package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/f2023065371-lang/fazal-portfolio/internal/directory"
	"github.com/f2023065371-lang/fazal-portfolio/internal/draft"
	"github.com/f2023065371-lang/fazal-portfolio/internal/layout"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
	"github.com/f2023065371-lang/fazal-portfolio/internal/render"
)

var bcryptHashRe = regexp.MustCompile(`^\$2[aby]\$\d{2}\$.{53}$`)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Auth      AuthConfig        `yaml:"auth"`
	Directory DirectoryConfig   `yaml:"directory"`
	Issuer    IssuerConfig      `yaml:"issuer"`
	Document  DocumentConfig    `yaml:"document"`
	Render    RenderConfig      `yaml:"render"`
	Archive   ArchiveConfig     `yaml:"archive"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"app", &c.App},
		{"auth", &c.Auth},
		{"directory", &c.Directory},
		{"issuer", &c.Issuer},
		{"document", &c.Document},
		{"archive", &c.Archive},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AuthConfig holds session token configuration.
//
// Sessions live in memory, so an empty Secret is replaced by a random key at
// start-up; set one only to keep tokens valid across CLI invocations or for
// audit reasons.
type AuthConfig struct {
	Secret     string        `yaml:"secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Secret, validation.Length(16, 0)),
		validation.Field(&c.SessionTTL, validation.Required, validation.Min(time.Minute)),
	)
}

// DirectoryConfig lists the operators allowed to sign in.
type DirectoryConfig struct {
	Users []UserConfig `yaml:"users"`
}

// Validate validates the directory configuration.
func (c *DirectoryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Users, validation.Required),
	)
}

// Entries converts the configured users to directory entries.
func (c *DirectoryConfig) Entries() []directory.Entry {
	out := make([]directory.Entry, len(c.Users))
	for i, u := range c.Users {
		out[i] = directory.Entry{
			Username:     u.Username,
			Password:     u.Password,
			PasswordHash: u.PasswordHash,
			Contact:      u.Contact,
		}
	}
	return out
}

// UserConfig is one directory entry. Exactly one of Password or
// PasswordHash (bcrypt) should be set; the hash wins when both are.
type UserConfig struct {
	Username     string         `yaml:"username"`
	Password     string         `yaml:"password"`
	PasswordHash string         `yaml:"password_hash"`
	Contact      models.Contact `yaml:"contact"`
}

// Validate validates a single user.
func (c UserConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password,
			validation.When(c.PasswordHash == "", validation.Required.Error("password or password_hash is required"))),
		validation.Field(&c.PasswordHash, validation.Match(bcryptHashRe).Error("must be a bcrypt hash")),
		validation.Field(&c.Contact, validation.By(validateContact)),
	)
}

func validateContact(value interface{}) error {
	c, _ := value.(models.Contact)
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Email, is.Email),
	)
}

// IssuerConfig is the site owner block printed on every document.
type IssuerConfig struct {
	Name      string   `yaml:"name"`
	Lines     []string `yaml:"lines"`
	Watermark string   `yaml:"watermark"`
}

// Validate validates the issuer configuration.
func (c *IssuerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
	)
}

// DocumentConfig holds builder and totals settings.
type DocumentConfig struct {
	// TaxRate is a fraction, e.g. 0.17 for 17%.
	TaxRate       float64 `yaml:"tax_rate"`
	Footer        string  `yaml:"footer"`
	StrictNumbers bool    `yaml:"strict_numbers"`
}

// Validate validates the document configuration.
func (c *DocumentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TaxRate, validation.Min(0.0), validation.Max(1.0)),
	)
}

// DraftOptions returns the parse options for draft files.
func (c *DocumentConfig) DraftOptions() draft.Options {
	return draft.Options{TaxRate: c.TaxRate, Strict: c.StrictNumbers}
}

// RenderConfig configures the PDF renderer.
type RenderConfig struct {
	FontPath     string `yaml:"font_path"`
	BoldFontPath string `yaml:"bold_font_path"`
	Creator      string `yaml:"creator"`
}

// ArchiveConfig controls whether rendered documents are kept on disk.
type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Validate validates the archive configuration.
func (c *ArchiveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Enabled, validation.Required)),
	)
}

// LayoutIssuer combines the issuer and document sections for page layout.
func (c *Config) LayoutIssuer() layout.Issuer {
	return layout.Issuer{
		Name:      c.Issuer.Name,
		Lines:     c.Issuer.Lines,
		Watermark: c.Issuer.Watermark,
		Footer:    c.Document.Footer,
	}
}

// PDFOptions returns the renderer settings.
func (c *Config) PDFOptions() render.PDFOptions {
	return render.PDFOptions{
		FontPath:     c.Render.FontPath,
		BoldFontPath: c.Render.BoldFontPath,
		Creator:      c.Render.Creator,
		Author:       c.Issuer.Name,
	}
}

// NewDefaultConfig returns a new Config with sensible default values. The
// demo directory and issuer match the public portfolio site.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Auth: AuthConfig{
			SessionTTL: 12 * time.Hour,
		},
		Directory: DirectoryConfig{
			Users: []UserConfig{
				{
					Username: "jamshed",
					Password: "jimmy@123",
					Contact:  models.Contact{Name: "Jamshed", Phone: "+92 3xx xxxxxxx", Email: "jamshed@example.com"},
				},
				{
					Username: "saqib",
					Password: "saqib@123",
					Contact:  models.Contact{Name: "Saqib", Phone: "+92 3xx xxxxxxx", Email: "saqib@example.com"},
				},
			},
		},
		Issuer: IssuerConfig{
			Name: "Fazal Raheem",
			Lines: []string{
				"Fazal Raheem — Software Engineering Student",
				"AI-Assisted Developer",
				"Lahore, Pakistan",
				"Email: fazalraheem508@gmail.com",
			},
			Watermark: "FAZAL RAHEEM",
		},
		Document: DocumentConfig{
			TaxRate: 0,
			Footer:  "Thank you!",
		},
		Render: RenderConfig{
			Creator: "folio",
		},
		Archive: ArchiveConfig{
			Enabled:    false,
			Path:       "./documents",
			SQLitePath: "./folio.db",
		},
	}
}
