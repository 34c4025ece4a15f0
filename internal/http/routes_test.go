package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
	"github.com/classboard-app/classboard/internal/mocks"
)

func newTestRouter(t *testing.T, f *sessionFixture, documents *mocks.MockDocumentStore) http.Handler {
	t.Helper()
	return NewRouter(RouterServices{
		Sessions:  f.sessions,
		Flow:      f.provider,
		Documents: documents,
	})
}

func TestRouter_Healthz(t *testing.T) {
	f := newSessionFixture(t)
	router := newTestRouter(t, f, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_DashboardIsGuarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newSessionFixture(t)
	documents := mocks.NewMockDocumentStore(ctrl)
	router := newTestRouter(t, f, documents)

	// Loading: placeholder only.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DashboardPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "session-loading")

	// Signed out: replaced redirect to the entry page.
	f.resolveSignedOut(t)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DashboardPath, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, EntryPath, rec.Header().Get("Location"))

	// Signed in: role-dispatched view.
	f.signInAs(t, "u1", "u1@example.com")
	documents.EXPECT().GetRole(gomock.Any(), "u1").Return(domainauth.RoleStudent, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DashboardPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "view-student")
}

func TestRouter_LogoutRequiresPost(t *testing.T) {
	f := newSessionFixture(t)
	router := newTestRouter(t, f, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, LogoutPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_SessionEndpoint(t *testing.T) {
	f := newSessionFixture(t)
	f.resolveSignedOut(t)
	router := newTestRouter(t, f, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, SessionPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unauthenticated"`)
}
