package auth

import "net/http"

// Strategy authenticates a request. It returns the request to continue with
// (usually carrying a principal) or the reason it was rejected.
type Strategy func(r *http.Request) (*http.Request, error)

// Chain lets a request through when any strategy accepts it. Strategies run
// in order and the first success wins. When all of them fail the last error
// is passed to write.
func Chain(write func(http.ResponseWriter, error), strategies ...Strategy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := errNoStrategy
			for _, s := range strategies {
				var rr *http.Request
				rr, err = s(r)
				if err == nil {
					if rr == nil {
						rr = r
					}
					next.ServeHTTP(w, rr)
					return
				}
			}
			write(w, err)
		})
	}
}
