package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Router is the minimal HTTP router contract the route builder depends on.
type Router interface {
	Handle(method, path string, h http.Handler)
	Get(path string, h http.Handler)
	Post(path string, h http.Handler)
	Mux() http.Handler
	Use(mw ...func(http.Handler) http.Handler)
	// With returns a router sharing the same tree whose routes are wrapped
	// by mw in addition to everything passed to Use.
	With(mw ...func(http.Handler) http.Handler) Router
}

type chiRouter struct{ r chi.Router }

// NewChi returns a Chi-backed Router.
func NewChi() Router { return &chiRouter{r: chi.NewRouter()} }

func (c *chiRouter) Handle(method, path string, h http.Handler) {
	c.r.Method(strings.ToUpper(method), path, h)
}
func (c *chiRouter) Get(path string, h http.Handler)           { c.r.Method(http.MethodGet, path, h) }
func (c *chiRouter) Post(path string, h http.Handler)          { c.r.Method(http.MethodPost, path, h) }
func (c *chiRouter) Mux() http.Handler                         { return c.r }
func (c *chiRouter) Use(mw ...func(http.Handler) http.Handler) { c.r.Use(mw...) }

func (c *chiRouter) With(mw ...func(http.Handler) http.Handler) Router {
	return &chiRouter{r: c.r.With(mw...)}
}
