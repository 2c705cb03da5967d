package config

import (
	"time"

	koanf "github.com/knadh/koanf/v2"
)

// Defaults for keys that may be omitted from YAML and env.
const (
	DefaultListenAddr      = ":8080"
	DefaultDriver          = "mysql"
	DefaultMailPort        = 587
	DefaultContentType     = "text/plain"
	DefaultCaptureTimeout  = 2 * time.Second
	DefaultRetentionDays   = 30
	DefaultSweepInterval   = 24 * time.Hour
	DefaultAdminCapability = "manage_options"
	DefaultLogLevel        = "info"
)

// applyDefaults fills zero values.  Booleans and counts whose zero value is
// meaningful are checked against the koanf tree instead, so an explicit
// `false` or `0` survives.
func applyDefaults(c *Config, k *koanf.Koanf) {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = DefaultListenAddr
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	if c.Database.MaxOpen == 0 {
		c.Database.MaxOpen = 15
	}
	if c.Database.MaxIdle == 0 {
		c.Database.MaxIdle = 5
	}

	if c.Mail.Port == 0 {
		c.Mail.Port = DefaultMailPort
	}
	if c.Mail.ContentType == "" {
		c.Mail.ContentType = DefaultContentType
	}

	if c.Capture.Timeout == 0 {
		c.Capture.Timeout = DefaultCaptureTimeout
	}

	if !k.Exists("retention.days") {
		c.Retention.Days = DefaultRetentionDays
	}
	if c.Retention.Interval == 0 {
		c.Retention.Interval = DefaultSweepInterval
	}

	if !k.Exists("settings.enabled") {
		c.Settings.Enabled = true
	}
	if c.Settings.AdminCapability == "" {
		c.Settings.AdminCapability = DefaultAdminCapability
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
