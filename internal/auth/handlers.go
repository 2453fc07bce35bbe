package auth

import (
	"net/http"

	"github.com/homwrkk/IUI/internal/config"
	"github.com/homwrkk/IUI/internal/logger"
	"github.com/workos/workos-go/v6/pkg/usermanagement"
)

const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)

func LoginHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorizationURL, err := usermanagement.GetAuthorizationURL(
			usermanagement.GetAuthorizationURLOpts{
				ClientID:    cfg.WorkOSClientID,
				Provider:    "authkit",
				RedirectURI: cfg.WorkOSRedirectURL,
			},
		)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "authorization_url", err.Error())
			return
		}

		http.Redirect(w, r, authorizationURL.String(), http.StatusSeeOther)
	}
}

// CallbackHandler exchanges the AuthKit code for tokens, stores them as cookies and sends the
// browser back to the membership page.
func CallbackHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			writeJSONError(w, http.StatusBadRequest, "missing_code", "code is required")
			return
		}

		resp, err := usermanagement.AuthenticateWithCode(r.Context(), usermanagement.AuthenticateWithCodeOpts{
			ClientID: cfg.WorkOSClientID,
			Code:     code,
		})
		if err != nil {
			logger.Log.Warn("workos code exchange failed", "error", err)
			writeJSONError(w, http.StatusUnauthorized, "authentication_failed", "authentication failed")
			return
		}

		setTokenCookie(w, AccessTokenCookieName, resp.AccessToken)
		setTokenCookie(w, RefreshTokenCookieName, resp.RefreshToken)

		http.Redirect(w, r, cfg.FE_BASE_URL+"/membership", http.StatusSeeOther)
	}
}

func setTokenCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
