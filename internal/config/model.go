// internal/config/model.go
//
// Typed configuration model for maillog.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                           – dotenv values,
//   • `conf/global.yaml`                        – primary static file,
//   • `MAILLOG_`-prefixed environment overrides – highest precedence.
//
// Secret fields (database and SMTP passwords) may hold a `vault:` reference
// instead of a literal; the loader resolves them before validation, so the
// model never carries Vault URIs past Load().
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • Zero values are replaced by the defaults in defaults.go.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`
}

//
// Database section
//

// Database selects the log-store backend.  Driver "mysql" is the
// production default; "sqlite" is meant for development and single-host
// installs.
type Database struct {
	Driver   string `koanf:"driver"    validate:"oneof=mysql sqlite"`
	DSN      string `koanf:"dsn"       validate:"required"`
	Password string `koanf:"password"` // literal or vault:mount/path#key
	MaxOpen  int    `koanf:"max_open"  validate:"gte=0"`
	MaxIdle  int    `koanf:"max_idle"  validate:"gte=0"`
}

//
// Mail section
//

// Mail configures the SMTP send primitive.
type Mail struct {
	Host          string `koanf:"host"            validate:"required"`
	Port          int    `koanf:"port"            validate:"required,gt=0,lte=65535"`
	Username      string `koanf:"username"`
	Password      string `koanf:"password"` // literal or vault:mount/path#key
	From          string `koanf:"from"            validate:"required,email"`
	SkipTLSVerify bool   `koanf:"skip_tls_verify"`
	ContentType   string `koanf:"content_type"    validate:"oneof=text/plain text/html"`
}

//
// Site section
//

// Site identifies the install in default test-email content.
type Site struct {
	Name string `koanf:"name" validate:"required"`
	URL  string `koanf:"url"  validate:"required,url"`
}

//
// Capture, retention, and settings sections
//

// Capture bounds the synchronous pre-send capture.
type Capture struct {
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// Retention drives the periodic sweep.  Days == 0 disables the loop.
type Retention struct {
	Days     int           `koanf:"days"     validate:"gte=0"`
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
}

// Settings are the admin-facing switches.  The host enforces
// AdminCapability; maillog only reports it.
type Settings struct {
	Enabled         bool   `koanf:"enabled"          json:"enabled"`
	AdminCapability string `koanf:"admin_capability" json:"admin_capability" validate:"required"`
}

//
// Log and GeoIP sections
//

// Log controls the zap logger.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// GeoIP points at an optional GeoLite2-City database for request info.
type GeoIP struct {
	DatabasePath string `koanf:"database_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // MAILLOG_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP      HTTP      `koanf:"http"`
	Database  Database  `koanf:"database"`
	Mail      Mail      `koanf:"mail"`
	Site      Site      `koanf:"site"`
	Capture   Capture   `koanf:"capture"`
	Retention Retention `koanf:"retention"`
	Settings  Settings  `koanf:"settings"`
	Log       Log       `koanf:"log"`
	GeoIP     GeoIP     `koanf:"geoip"`
	Paths     Paths     `koanf:"-"`
}
