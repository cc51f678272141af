package core

import (
	"net/http"

	"github.com/joeydtaylor/steeze-bearer/pkg/codec"
)

func writeJSON(w http.ResponseWriter, payload []byte, status int) {
	if status == http.StatusNoContent || status == http.StatusNotModified {
		w.WriteHeader(status)
		return
	}
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	_ = codec.Write(w, codec.JSON, status, "", payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = codec.Write(w, codec.JSON, status, "", map[string]string{"error": msg})
}

func statusIf(s, def int) int {
	if s > 0 {
		return s
	}
	return def
}
