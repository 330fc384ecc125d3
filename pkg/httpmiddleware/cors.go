package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to make cross-origin requests.
	// Empty, or a single "*" entry, allows every origin.
	AllowOrigins []string

	// AllowMethods lists the HTTP methods clients may use.
	// Defaults to "GET, POST, PUT, DELETE, OPTIONS" when empty.
	AllowMethods []string

	// AllowHeaders lists request headers clients may send. When empty, the
	// preflight response echoes Access-Control-Request-Headers back.
	AllowHeaders []string

	// ExposeHeaders lists response headers the browser may read.
	ExposeHeaders []string

	// AllowCredentials permits cookies and authorization headers on
	// cross-origin requests. Incompatible with a wildcard origin, so when set
	// the middleware always echoes the specific origin instead of "*".
	AllowCredentials bool

	// MaxAge is how long, in seconds, browsers may cache preflight results.
	// Zero omits the header; a negative value sends "0".
	MaxAge int
}

// cors holds the precomputed header values shared by all requests.
type cors struct {
	cfg           CORSConfig
	allowAll      bool
	origins       map[string]string // lowercase origin to original-case value
	allowMethods  string
	allowHeaders  string
	exposeHeaders string
	maxAge        string
}

// CORS returns a middleware implementing Cross-Origin Resource Sharing.
// Origin matching is case-insensitive but the configured casing is echoed
// back, and Vary headers are set so shared caches never serve one origin's
// response to another.
func CORS(cfg CORSConfig) Middleware {
	c := &cors{cfg: cfg, allowAll: len(cfg.AllowOrigins) == 0}
	c.origins = make(map[string]string, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.allowAll = true
			break
		}
		c.origins[strings.ToLower(o)] = o
	}
	if cfg.AllowCredentials {
		c.allowAll = false
	}

	c.allowMethods = strings.Join(cfg.AllowMethods, ", ")
	if c.allowMethods == "" {
		c.allowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	c.allowHeaders = strings.Join(cfg.AllowHeaders, ", ")
	c.exposeHeaders = strings.Join(cfg.ExposeHeaders, ", ")

	switch {
	case cfg.MaxAge > 0:
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		c.maxAge = "0"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Same-origin requests skip CORS entirely. Still vary on Origin
			// when responses differ per origin.
			if origin == "" {
				if !c.allowAll {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				c.preflight(w, r, origin)
				return
			}

			if !c.allowAll {
				w.Header().Add("Vary", "Origin")
			}
			if allow := c.resolveOrigin(origin); allow != "" {
				w.Header().Set("Access-Control-Allow-Origin", allow)
				if c.cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if c.exposeHeaders != "" {
					w.Header().Set("Access-Control-Expose-Headers", c.exposeHeaders)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// preflight answers an OPTIONS request carrying Access-Control-Request-Method.
// Disallowed origins get a bare 204 without CORS headers.
func (c *cors) preflight(w http.ResponseWriter, r *http.Request, origin string) {
	w.Header().Add("Vary", "Origin")
	w.Header().Add("Vary", "Access-Control-Request-Method")
	w.Header().Add("Vary", "Access-Control-Request-Headers")

	allow := c.resolveOrigin(origin)
	if allow == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", allow)
	w.Header().Set("Access-Control-Allow-Methods", c.allowMethods)

	if c.allowHeaders != "" {
		w.Header().Set("Access-Control-Allow-Headers", c.allowHeaders)
	} else if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
		w.Header().Set("Access-Control-Allow-Headers", rh)
	}

	if c.cfg.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if c.maxAge != "" {
		w.Header().Set("Access-Control-Max-Age", c.maxAge)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *cors) resolveOrigin(origin string) string {
	if c.allowAll {
		return "*"
	}
	if orig, ok := c.origins[strings.ToLower(origin)]; ok {
		return orig
	}
	return ""
}
