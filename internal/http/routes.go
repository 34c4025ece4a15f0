package httpx

import (
	"log/slog"
	"net/http"

	"github.com/classboard-app/classboard/internal/ports"
	"github.com/classboard-app/classboard/internal/service"
)

// RouterServices holds the services the HTTP router needs.
type RouterServices struct {
	Sessions  *service.SessionProvider
	Flow      ports.FlowInitiator
	Documents ports.DocumentStore

	CookieDomain string
	Logger       *slog.Logger // optional
}

// NewRouter creates and configures the HTTP router. Protected routes
// sit behind the route guard; the guard runs before any protected
// handler, so role dispatch only ever sees authenticated sessions.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Sessions:     services.Sessions,
		Flow:         services.Flow,
		CookieDomain: services.CookieDomain,
		Logger:       services.Logger,
	}
	dashboardHandlers := &DashboardHandlers{
		Documents: services.Documents,
		Logger:    services.Logger,
	}

	mux.HandleFunc("GET "+EntryPath, authHandlers.Entry)
	mux.HandleFunc("GET "+LoginPath, authHandlers.Login)
	mux.HandleFunc("GET "+CallbackPath, authHandlers.Callback)
	mux.HandleFunc("POST "+LogoutPath, authHandlers.Logout)
	mux.HandleFunc("GET "+SessionPath, authHandlers.SessionStatus)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	guard := Guard(services.Sessions.Store())
	mux.Handle("GET "+DashboardPath, guard(http.HandlerFunc(dashboardHandlers.Dashboard)))

	return mux
}
