package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/wilde-art/framecart/api/web"
)

var langSegment = regexp.MustCompile(`^/([a-z]{2})(/.*)$`)

// Language strips an optional two letter language segment that directly follows
// prefix ("/api/no/animals" → "/api/animals") and stores it in the request
// context. It runs before routing, so it wraps the router itself.
func Language(prefix string, fallback string, next http.Handler) http.Handler {
	prefix = strings.TrimSuffix(prefix, "/")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := fallback

		if rest := strings.TrimPrefix(r.URL.Path, prefix); rest != r.URL.Path {
			if m := langSegment.FindStringSubmatch(rest); m != nil {
				lang = m[1]

				u := *r.URL
				u.Path = prefix + m[2]
				u.RawPath = ""
				r2 := r.Clone(r.Context())
				r2.URL = &u
				r = r2
			}
		}

		next.ServeHTTP(w, r.WithContext(web.SetLang(r.Context(), lang)))
	})
}
