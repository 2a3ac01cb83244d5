package handlers

import "net/http"

// Info serves the service description at the root path.
type Info struct {
	Name    string
	Version string
}

func (i Info) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": i.Name,
		"version": i.Version,
		"status":  "running",
		"endpoints": map[string]string{
			"google_sign_in": "POST /auth/google",
			"email_sign_in":  "POST /auth/email",
			"current_user":   "GET /auth/me",
			"auth_health":    "GET /auth/health",
			"health":         "GET /health",
		},
	})
}
