package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
	"github.com/classboard-app/classboard/internal/ports"
)

// DashboardHandlers serves the role-dispatched dashboard views. The
// route guard runs first, so every request reaching these handlers
// carries an authenticated session snapshot.
type DashboardHandlers struct {
	Documents ports.DocumentStore
	Logger    *slog.Logger
}

func (h *DashboardHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Dashboard resolves the signed-in identity's role and renders the view
// the dispatcher selects.
// GET /dashboard.
func (h *DashboardHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok || !session.Authenticated() {
		// Guard ordering violated; treat like the guard would.
		http.Redirect(w, r, EntryPath, http.StatusSeeOther)
		return
	}

	role := domainauth.RoleUnrecognized
	if h.Documents != nil {
		resolved, err := h.Documents.GetRole(r.Context(), session.Identity.ID)
		if err != nil {
			// A failed lookup falls back to the not-configured view rather
			// than failing the page; the document store may be briefly
			// unavailable.
			h.logger().WarnContext(r.Context(), "role lookup failed",
				"identity_id", session.Identity.ID, "error", err)
		} else {
			role = resolved
		}
	}

	view := domainauth.Dispatch(session, role)
	renderPage(w, viewTemplate(view), viewData{Email: session.Identity.Email})
}
