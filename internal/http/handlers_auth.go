package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/classboard-app/classboard/internal/ports"
	"github.com/classboard-app/classboard/internal/service"
)

// AuthHandlers provides HTTP handlers for the session layer.
type AuthHandlers struct {
	Sessions     *service.SessionProvider
	Flow         ports.FlowInitiator
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Entry renders the public entry page.
// GET /.
func (h *AuthHandlers) Entry(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != EntryPath {
		http.NotFound(w, r)
		return
	}

	session := h.Sessions.Store().Current()
	if session.Authenticated() {
		// Already signed in; the dashboard is the natural destination.
		http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
		return
	}

	// The last sign-in failure renders inline; it never crashes the
	// page.
	renderPage(w, "entry", entryData{Error: session.Err})
}

// Login begins the interactive sign-in flow.
// GET /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	result, state, nonce, err := h.Flow.Begin(r.Context(), ports.BeginInput{RedirectURL: CallbackPath})
	if err != nil {
		h.logger().WarnContext(r.Context(), "begin sign-in failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	h.setOAuthCookies(w, r, state, nonce)
	http.Redirect(w, r, result, http.StatusSeeOther)
}

// Callback completes the interactive sign-in flow.
// GET /auth/callback?code=<code>&state=<state>[&error=<code>].
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := ports.SignInRequest{
		Code:          query.Get("code"),
		State:         query.Get("state"),
		CallbackError: query.Get("error"),
	}

	if req.CallbackError == "" {
		// Verify state and recover the nonce from the handshake cookies.
		sc, err := r.Cookie(stateCookie)
		if err != nil || sc.Value == "" || sc.Value != req.State {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_state",
				Err:     errors.New("invalid or missing state parameter"),
			})
			return
		}
		nc, err := r.Cookie(nonceCookie)
		if err != nil {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "missing_nonce",
				Err:     errors.New("missing nonce cookie"),
			})
			return
		}
		req.Nonce = nc.Value
	}

	h.clearCookie(w, r, stateCookie)
	h.clearCookie(w, r, nonceCookie)

	identity, authErr := h.Sessions.RequestSignIn(r.Context(), req)
	if authErr != nil {
		// The failure is recorded on the session; the entry page renders
		// it inline.
		http.Redirect(w, r, EntryPath, http.StatusSeeOther)
		return
	}
	if identity == nil {
		// Dismissed flow: a no-op, back to where the user came from.
		http.Redirect(w, r, EntryPath, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}

// Logout signs the current user out.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if authErr := h.Sessions.RequestSignOut(r.Context()); authErr != nil {
		h.logger().WarnContext(r.Context(), "sign-out failed", "error", authErr)
	}
	http.Redirect(w, r, EntryPath, http.StatusSeeOther)
}

// SessionStatus returns the current session snapshot as JSON.
// GET /auth/session.
func (h *AuthHandlers) SessionStatus(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, h.Sessions.Store().Current())
}

func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, state, nonce string) {
	isSecure := isSecureRequest(r)
	for name, value := range map[string]string{stateCookie: state, nonceCookie: nonce} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Domain:   h.CookieDomain,
			HttpOnly: true,
			Secure:   isSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   oauthCookieMaxAge,
		})
	}
}

// clearCookie clears a cookie by setting it to expire immediately,
// mirroring the attributes used when setting it.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
