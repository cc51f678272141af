package bearer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/elnormous/contenttype"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Observer receives every verification outcome (metrics, auditing).
type Observer interface {
	ObserveOutcome(r *http.Request, o Outcome)
}

// Host describes what the surrounding server offers the engine.
type Host struct {
	// Logger is the leveled logger failures are written to. nil means the
	// host has no logger.
	Logger *zap.Logger
	// RequestFields adds per-request context (request id, path) to failure logs.
	RequestFields func(*http.Request) []zap.Field
	Observer      Observer
}

// RuntimeConfig is the validated, immutable form of Options. It is shared
// read-only across concurrent requests.
type RuntimeConfig struct {
	keys   [][]byte
	keyIDs []string

	auth      AuthFunc
	asyncAuth AsyncAuthFunc

	bearerType string
	spec       SpecCompliance
	prefix     string

	contentType   string
	errorResponse ErrorResponseFunc
	hook          HookPlacement

	logEnabled bool
	logLevel   zapcore.Level

	allowAnonymous bool
}

func (c *RuntimeConfig) BearerType() string             { return c.bearerType }
func (c *RuntimeConfig) SpecCompliance() SpecCompliance { return c.spec }
func (c *RuntimeConfig) Hook() HookPlacement            { return c.hook }
func (c *RuntimeConfig) ContentType() string            { return c.contentType }
func (c *RuntimeConfig) AllowAnonymous() bool           { return c.allowAnonymous }
func (c *RuntimeConfig) KeyCount() int                  { return len(c.keys) }

// KeyIDs lists the KeyID of every configured key, deduplicated, in
// configuration order.
func (c *RuntimeConfig) KeyIDs() []string { return append([]string(nil), c.keyIDs...) }

// LogLevel returns the failure log level and whether failure logging is on.
func (c *RuntimeConfig) LogLevel() (zapcore.Level, bool) { return c.logLevel, c.logEnabled }

func (c *RuntimeConfig) usesKeys() bool { return c.auth == nil && c.asyncAuth == nil }

// matchPrefix compares the leading bytes of header with the expected
// "<type> " prefix, honoring the case rule of the compliance mode.
func (c *RuntimeConfig) matchPrefix(header string) bool {
	if len(header) < len(c.prefix) {
		return false
	}
	head := header[:len(c.prefix)]
	if c.spec == RFC6749 {
		return strings.ToLower(head) == c.prefix
	}
	return head == c.prefix
}

var supportedLevels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// Normalize validates opts against host and returns the runtime configuration.
func Normalize(opts Options, host Host) (*RuntimeConfig, error) {
	o := merge(DefaultOptions(), opts)

	if o.Auth != nil && o.AsyncAuth != nil {
		return nil, ErrConflictingAuth
	}

	rc := &RuntimeConfig{
		auth:           o.Auth,
		asyncAuth:      o.AsyncAuth,
		bearerType:     o.BearerType,
		errorResponse:  o.ErrorResponse,
		allowAnonymous: o.AllowAnonymous,
	}

	if rc.usesKeys() {
		keys, err := normalizeKeys(o.Keys)
		if err != nil {
			return nil, err
		}
		rc.keys = make([][]byte, len(keys))
		rc.keyIDs = make([]string, len(keys))
		for i, k := range keys {
			rc.keys[i] = []byte(k)
			rc.keyIDs[i] = KeyID(k)
		}
	}

	hook, err := normalizeHook(o.Hook)
	if err != nil {
		return nil, err
	}
	rc.hook = hook

	switch o.SpecCompliance {
	case RFC6749:
		rc.spec = RFC6749
		rc.prefix = strings.ToLower(o.BearerType + " ")
	case RFC6750:
		rc.spec = RFC6750
		rc.prefix = o.BearerType + " "
	default:
		return nil, ErrInvalidSpecCompliance
	}

	if o.ContentType != "" {
		if _, err := contenttype.ParseMediaType(o.ContentType); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidContentType, o.ContentType)
		}
		rc.contentType = o.ContentType
	}

	rc.logLevel, rc.logEnabled, err = normalizeLogLevel(o.LogLevel, host.Logger)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func normalizeKeys(raw any) ([]string, error) {
	var entries []string
	switch v := raw.(type) {
	case []string:
		entries = append(entries, v...)
	case []any:
		for i, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: entry %d is %T", ErrInvalidKeyEntryType, i, e)
			}
			entries = append(entries, s)
		}
	case KeySet:
		entries = setKeys(v)
	case map[string]struct{}:
		entries = setKeys(v)
	case map[string]bool:
		for k, in := range v {
			if in {
				entries = append(entries, k)
			}
		}
		sort.Strings(entries)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidKeysType, raw)
	}

	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for i, k := range entries {
		if k == "" {
			return nil, fmt.Errorf("%w: entry %d is empty", ErrInvalidKeyEntryType, i)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out, nil
}

func setKeys[M ~map[string]struct{}](m M) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalizeHook(h any) (HookPlacement, error) {
	switch v := h.(type) {
	case nil:
		return HookOnRequest, nil
	case bool:
		if v {
			return HookOnRequest, nil
		}
		return HookNone, nil
	case HookPlacement:
		return placement(string(v))
	case string:
		return placement(v)
	}
	return "", fmt.Errorf("%w: got %T", ErrInvalidHookPlacement, h)
}

func placement(s string) (HookPlacement, error) {
	switch HookPlacement(s) {
	case HookOnRequest, HookPreParsing, HookNone:
		return HookPlacement(s), nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidHookPlacement, s)
}

func normalizeLogLevel(lvl *string, logger *zap.Logger) (zapcore.Level, bool, error) {
	if lvl == nil {
		if logger == nil {
			return zapcore.InvalidLevel, false, nil
		}
		return supportedLevels[defaultLogLevel], true, nil
	}
	if *lvl == "" {
		return zapcore.InvalidLevel, false, nil
	}
	l, ok := supportedLevels[*lvl]
	// A level the logger filters out would drop every failure entry.
	if !ok || logger == nil || !logger.Core().Enabled(l) {
		return zapcore.InvalidLevel, false, &InvalidLogLevelError{Level: *lvl}
	}
	return l, true, nil
}

// KeyID is a short, non-reversible label for a key, safe to log.
func KeyID(k string) string {
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:6])
}
