package cmd

import (
	"context"
	"encoding/json"

	"github.com/joeydtaylor/steeze-bearer/pkg/core"
	"github.com/joeydtaylor/steeze-bearer/pkg/middleware/auth"
)

func init() {
	core.Register("authenticated", authenticated)
	core.Register("whoami", whoami)
}

// authenticated answers {"authenticated": true} for verified callers.
func authenticated(ctx context.Context, _ []byte) ([]byte, int, error) {
	out, err := json.Marshal(map[string]bool{"authenticated": auth.IsAuthenticated(ctx)})
	return out, 0, err
}

func whoami(ctx context.Context, _ []byte) ([]byte, int, error) {
	out, err := json.Marshal(auth.GetPrincipal(ctx))
	return out, 0, err
}
