package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureOptions returns secure.Options for a JSON API. HSTS is only sent on
// HTTPS requests, including those a proxy marks with X-Forwarded-Proto.
// An empty allowedHosts accepts any host.
func SecureOptions(isDevelopment bool, allowedHosts []string) secure.Options {
	return secure.Options{
		IsDevelopment:         isDevelopment,
		AllowedHosts:          allowedHosts,
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
		STSSeconds:            31536000,
		STSIncludeSubdomains:  true,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	}
}

// NewSecure returns a middleware that adds security headers.
func NewSecure(opts secure.Options) func(next http.Handler) http.Handler {
	s := secure.New(opts)
	return s.Handler
}
