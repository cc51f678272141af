package manifest

import (
	"errors"
	"strings"

	"github.com/joeydtaylor/steeze-bearer/pkg/bearer"
)

// HandlerType enumerates the supported handler kinds.
type HandlerType string

const (
	HandlerInproc HandlerType = "inproc"
	HandlerStatic HandlerType = "static"
)

// Bearer is the [bearer] table.
type Bearer struct {
	Keys     []string `toml:"keys"`
	KeysFile string   `toml:"keys_file"`

	BearerType     string `toml:"bearer_type"`
	SpecCompliance string `toml:"spec_compliance"`
	ContentType    string `toml:"content_type"`

	// Hook is a bool or a placement name.
	Hook any `toml:"hook"`
	// LogLevel is left nil when absent so the default applies; "" disables.
	LogLevel *string `toml:"log_level"`

	AllowAnonymous bool `toml:"allow_anonymous"`

	JWT *JWT `toml:"jwt"`
}

// JWT is the [bearer.jwt] table.
type JWT struct {
	JWKSURL       string   `toml:"jwks_url"`
	PublicKeyFile string   `toml:"public_key_file"`
	Issuer        string   `toml:"issuer"`
	Audience      []string `toml:"audience"`
	Algorithms    []string `toml:"algorithms"`
	LeewaySeconds int      `toml:"leeway_seconds"`
}

// Options converts the table to engine options. Keys holds only the inline
// keys; the keys file is read by the caller.
func (b Bearer) Options() bearer.Options {
	return bearer.Options{
		Keys:           append([]string(nil), b.Keys...),
		BearerType:     b.BearerType,
		SpecCompliance: bearer.SpecCompliance(b.SpecCompliance),
		ContentType:    b.ContentType,
		Hook:           b.Hook,
		LogLevel:       b.LogLevel,
		AllowAnonymous: b.AllowAnonymous,
	}
}

// validate catches what the engine cannot see: the credential sources.
// Everything else is checked by bearer.Normalize at registration.
func (b *Bearer) validate() error {
	b.KeysFile = strings.TrimSpace(b.KeysFile)
	if len(b.Keys) == 0 && b.KeysFile == "" && b.JWT == nil {
		return errors.New("one of keys, keys_file or jwt is required")
	}
	if j := b.JWT; j != nil {
		if (strings.TrimSpace(j.JWKSURL) == "") == (strings.TrimSpace(j.PublicKeyFile) == "") {
			return errors.New("jwt: exactly one of jwks_url or public_key_file is required")
		}
		if j.LeewaySeconds < 0 {
			return errors.New("jwt: leeway_seconds must be >= 0")
		}
	}
	return nil
}
