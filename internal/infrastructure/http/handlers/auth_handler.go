package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/scalpr/scalp/internal/application/auth"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
	"github.com/scalpr/scalp/internal/infrastructure/http/middleware"
)

type AuthHandler struct {
	google   *auth.GoogleSignIn
	email    *auth.EmailSignIn
	validate *validator.Validate
	log      zerolog.Logger
}

func NewAuthHandler(google *auth.GoogleSignIn, email *auth.EmailSignIn, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		google:   google,
		email:    email,
		validate: validator.New(),
		log:      log,
	}
}

// Google handles POST /auth/google. id_token is accepted for client
// compatibility; only the access token is checked.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AccessToken string `json:"access_token" validate:"required,max=4096"`
		IDToken     string `json:"id_token" validate:"max=8192"`
	}
	if err := decodeBody(r, h.validate, &body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	result, err := h.google.Execute(r.Context(), body.AccessToken)
	if err != nil {
		h.signInFailed(w, r, "user.google_sign_in", err)
		return
	}
	h.signInSucceeded(w, r, "user.google_sign_in", result)
}

// Email handles POST /auth/email from the trusted mobile client. Only presence
// is checked here; limits apply to the trimmed values inside the use case.
func (h *AuthHandler) Email(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email   string  `json:"email" validate:"required"`
		Name    string  `json:"name" validate:"required"`
		Picture *string `json:"picture"`
	}
	if err := decodeBody(r, h.validate, &body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	result, err := h.email.Execute(r.Context(), auth.EmailSignInInput{
		Email:   body.Email,
		Name:    body.Name,
		Picture: body.Picture,
	})
	if err != nil {
		h.signInFailed(w, r, "user.email_sign_in", err)
		return
	}
	h.signInSucceeded(w, r, "user.email_sign_in", result)
}

// Me handles GET /auth/me. RequireCredential has already loaded the user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
		return
	}
	middleware.RecordAuthAttempt("me", true)
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) signInSucceeded(w http.ResponseWriter, r *http.Request, event string, result *auth.SignInResult) {
	AuditLog(h.log, r, event, result.User.ID.String(), true, "")
	middleware.RecordAuthAttempt(event, true)
	writeJSON(w, http.StatusOK, toTokenResponse(result))
}

func (h *AuthHandler) signInFailed(w http.ResponseWriter, r *http.Request, event string, err error) {
	AuditLog(h.log, r, event, "", false, err.Error())
	middleware.RecordAuthAttempt(event, false)
	switch {
	case errors.Is(err, domerrors.ErrAuthenticationFailed):
		writeErr(w, http.StatusUnauthorized, ErrCodeAuthenticationFailed, "authentication failed")
	case errors.Is(err, domerrors.ErrValidation):
		writeErr(w, http.StatusBadRequest, ErrCodeValidation, validationErrMessage(err))
	case errors.Is(err, domerrors.ErrIdentityConflict):
		writeErr(w, http.StatusConflict, ErrCodeConflict, "identity is linked to another account")
	default:
		h.log.Error().Err(err).Str("event", event).Msg("sign-in failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

// validationErrMessage returns the field detail of a wrapped ErrValidation.
func validationErrMessage(err error) string {
	msg := err.Error()
	prefix := domerrors.ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return domerrors.ErrValidation.Error()
}
