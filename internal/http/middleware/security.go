package middleware

import (
	"net/http"

	"github.com/tradeflow/backoffice-api/internal/config"
	"github.com/unrolled/secure"
)

// SecurityHeaders returns a middleware that adds security headers to responses
func SecurityHeaders(cfg *config.SecurityConfig, isDevelopment bool) func(http.Handler) http.Handler {
	options := secure.Options{
		FrameDeny:             cfg.FrameDeny,
		ContentTypeNosniff:    cfg.ContentTypeNosniff,
		BrowserXssFilter:      cfg.BrowserXSSFilter,
		ContentSecurityPolicy: cfg.ContentSecurityPolicy,
		ReferrerPolicy:        cfg.ReferrerPolicy,
		PermissionsPolicy:     cfg.PermissionsPolicy,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         isDevelopment,
	}
	if cfg.EnableHSTS {
		options.STSSeconds = int64(cfg.HSTSMaxAge)
		options.STSIncludeSubdomains = cfg.HSTSIncludeSubdomains
		options.STSPreload = cfg.HSTSPreload
	}
	sec := secure.New(options)

	return func(next http.Handler) http.Handler {
		return sec.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Remove headers that leak server information
			w.Header().Del("X-Powered-By")
			w.Header().Del("Server")
			next.ServeHTTP(w, r)
		}))
	}
}
