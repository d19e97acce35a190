package middleware

import (
	"net/http"
	"strings"
)

// corsPolicy is the resolved origin allowlist and the methods the API serves.
type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
	methods   map[string]struct{}
	allowList string
}

func newCORSPolicy(origins, methods []string) corsPolicy {
	p := corsPolicy{origins: map[string]struct{}{}, methods: map[string]struct{}{}}
	for _, origin := range origins {
		switch origin = strings.TrimSpace(origin); origin {
		case "":
		case "*":
			p.anyOrigin = true
		default:
			p.origins[origin] = struct{}{}
		}
	}
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}
	names := make([]string, 0, len(methods)+1)
	for _, m := range append(append([]string{}, methods...), http.MethodOptions) {
		m = strings.ToUpper(strings.TrimSpace(m))
		if _, dup := p.methods[m]; m == "" || dup {
			continue
		}
		p.methods[m] = struct{}{}
		names = append(names, m)
	}
	p.allowList = strings.Join(names, ", ")
	return p
}

func (p corsPolicy) allowsOrigin(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS serves browsers reading availability from other sites. methods lists the
// verbs the routes answer (GET when empty); OPTIONS is always added. "*" in
// origins echoes any Origin. X-Request-ID is exposed to scripts.
//
// Preflights are answered here: 204 for an allowed origin and method, 403 for
// an unknown origin, 405 for a method the API does not serve.
func CORS(origins []string, methods ...string) func(http.Handler) http.Handler {
	policy := newCORSPolicy(origins, methods)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Origin")

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if !policy.allowsOrigin(origin) {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Expose-Headers", "X-Request-ID")
			if !preflight {
				next.ServeHTTP(w, r)
				return
			}

			requested := strings.ToUpper(strings.TrimSpace(r.Header.Get("Access-Control-Request-Method")))
			if _, ok := policy.methods[requested]; !ok {
				h.Set("Allow", policy.allowList)
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.Set("Access-Control-Allow-Methods", policy.allowList)
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
