package httpx

import (
	"html/template"
	"log/slog"
	"net/http"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
)

// Minimal server-rendered pages. The dashboard frontend owns real
// layout and styling; these templates only carry the session states the
// presentation layer needs to reason about.

//nolint:gochecknoglobals // parsed once; templates are static
var pageTemplates = template.Must(template.New("pages").Parse(`
{{define "entry"}}<!doctype html>
<html><head><title>classboard</title></head><body>
<h1>classboard</h1>
{{if .Error}}<p class="auth-error" data-kind="{{.Error.Kind}}">{{.Error.Message}}</p>{{end}}
<a href="/auth/login">Sign in</a>
</body></html>{{end}}

{{define "loading"}}<!doctype html>
<html><head><title>classboard</title><meta http-equiv="refresh" content="1"></head><body>
<p class="session-loading">Checking your session&hellip;</p>
</body></html>{{end}}

{{define "student"}}<!doctype html>
<html><head><title>classboard</title></head><body>
<h1 class="view-student">Student dashboard</h1>
<p>Signed in as {{.Email}}</p>
<form method="post" action="/auth/logout"><button>Sign out</button></form>
</body></html>{{end}}

{{define "scheduling"}}<!doctype html>
<html><head><title>classboard</title></head><body>
<h1 class="view-scheduling">Scheduling dashboard</h1>
<p>Signed in as {{.Email}}</p>
<form method="post" action="/auth/logout"><button>Sign out</button></form>
</body></html>{{end}}

{{define "not-configured"}}<!doctype html>
<html><head><title>classboard</title></head><body>
<h1 class="view-not-configured">Access not configured</h1>
<p>Your account {{.Email}} is signed in, but no dashboard role is
configured for it. Ask an administrator to set one up.</p>
</body></html>{{end}}
`))

// entryData feeds the public entry page.
type entryData struct {
	Error *domainauth.AuthError
}

// viewData feeds the dashboard views.
type viewData struct {
	Email string
}

func renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		// Headers are already sent; log and move on.
		slog.Default().Error("render page failed", "template", name, "error", err)
	}
}

func renderLoadingPlaceholder(w http.ResponseWriter) {
	renderPage(w, "loading", nil)
}

// viewTemplate maps a ViewSelector to its template name.
func viewTemplate(view domainauth.ViewSelector) string {
	switch view {
	case domainauth.ViewStudent:
		return "student"
	case domainauth.ViewScheduling:
		return "scheduling"
	default:
		return "not-configured"
	}
}
