// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` after defaults are
// applied and secrets resolved.  Any tag mismatch or validation error aborts
// startup, so the binary never runs with partial or malformed
// configuration.
//
// One struct-level rule is registered here: SMTP credentials come as a
// pair or not at all.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = validator.New()

func init() {
	v.RegisterStructValidation(mailAuthPair, Mail{})
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}

// mailAuthPair rejects a username without a password and vice versa.
func mailAuthPair(sl validator.StructLevel) {
	m := sl.Current().Interface().(Mail)
	if (m.Username == "") != (m.Password == "") {
		sl.ReportError(m.Password, "Password", "password", "authpair", "")
	}
}
