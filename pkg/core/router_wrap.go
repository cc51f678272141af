package core

import (
	"io"
	"net/http"

	"github.com/joeydtaylor/steeze-bearer/pkg/manifest"
)

func wrapRoute(rt manifest.Route) http.HandlerFunc {
	switch rt.Handler.Type {
	case manifest.HandlerInproc:
		h, ok := Lookup(rt.Handler.Name)
		if !ok {
			return func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, http.StatusInternalServerError, "handler not found")
			}
		}
		return func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			out, status, err := h(r.Context(), body)
			if err != nil {
				writeError(w, statusIf(status, http.StatusInternalServerError), err.Error())
				return
			}
			writeJSON(w, out, statusIf(status, http.StatusOK))
		}

	case manifest.HandlerStatic:
		body := []byte(rt.Handler.Body)
		status := statusIf(rt.Handler.Status, http.StatusOK)
		return func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, body, status)
		}

	default:
		return func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusInternalServerError, "unknown handler type")
		}
	}
}
