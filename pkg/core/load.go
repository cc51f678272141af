package core

import (
	"fmt"

	"github.com/joeydtaylor/steeze-bearer/pkg/manifest"
)

// LoadConfig reads and validates the manifest at path and checks that every
// inproc handler it names has been registered.
func LoadConfig(path string) (manifest.Config, error) {
	cfg, err := manifest.Load(path)
	if err != nil {
		return manifest.Config{}, err
	}
	if err := CheckHandlers(cfg); err != nil {
		return manifest.Config{}, err
	}
	return cfg, nil
}

// CheckHandlers reports the first route whose inproc handler is unknown.
func CheckHandlers(cfg manifest.Config) error {
	for i, rt := range cfg.Routes {
		if rt.Handler.Type != manifest.HandlerInproc {
			continue
		}
		if _, ok := Lookup(rt.Handler.Name); !ok {
			return fmt.Errorf("route %d (%s %s): inproc handler %q not registered", i, rt.Method, rt.Path, rt.Handler.Name)
		}
	}
	return nil
}
