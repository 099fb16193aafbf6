package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Jobs    http.HandlerFunc
	RunJob  http.HandlerFunc
	Health  http.HandlerFunc
	Protect func(http.Handler) http.Handler
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Jobs != nil {
		mux.Handle("/jobs", method(http.MethodGet, routes.Jobs))
	}
	if routes.RunJob != nil {
		var h http.Handler = method(http.MethodPost, routes.RunJob)
		if routes.Protect != nil {
			h = routes.Protect(h)
		}
		mux.Handle("/jobs/run", h)
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
