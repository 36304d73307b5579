package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/npek/portal/internal/user"
)

type staticNav Nav

func (n staticNav) Nav(*user.User) Nav { return Nav(n) }

func newTestRenderer(t *testing.T) *Renderer {
	r, err := NewRenderer(staticNav{SocialStudies: true}, zap.NewNop())
	require.NoError(t, err)
	return r
}

func TestRenderer_Pages(t *testing.T) {
	r := newTestRenderer(t)

	for _, name := range []string{"index", "info", "conf", "profile", "login", "blocked",
		"social", "social_select", "philosophy", "document", "fullscreen"} {
		assert.Contains(t, r.pages, name)
	}
	assert.NotContains(t, r.pages, "layout")
}

func TestRenderer_Render(t *testing.T) {
	r := newTestRenderer(t)

	tests := []struct {
		name       string
		user       *user.User
		page       string
		data       any
		wantStatus int
		contains   []string
		excludes   []string
	}{
		{
			name:       "anonymous index",
			page:       "index",
			wantStatus: http.StatusOK,
			contains:   []string{`href="/login"`},
			excludes:   []string{`href="/o"`},
		},
		{
			name:       "signed-in nav",
			user:       &user.User{FirstName: "Иван", LastName: "Иванов", Role: user.RoleStudent},
			page:       "index",
			wantStatus: http.StatusOK,
			contains:   []string{`href="/o"`, "Иванов Иван", `href="/logout"`},
		},
		{
			name:       "message",
			page:       "blocked",
			data:       Message{Title: "Доступ ограничен", Text: "нет доступа"},
			wantStatus: http.StatusForbidden,
			contains:   []string{"Доступ ограничен", "нет доступа"},
		},
		{
			name:       "unknown page",
			page:       "missing",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = req.WithContext(user.NewContext(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()

			r.Render(rec, req, tt.wantStatus, tt.page, "", tt.data)

			assert.Equal(t, tt.wantStatus, rec.Code)
			for _, s := range tt.contains {
				assert.Contains(t, rec.Body.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, rec.Body.String(), s)
			}
		})
	}
}

func TestPages_Conf(t *testing.T) {
	p := NewPages(newTestRenderer(t))
	p.now = func() time.Time { return time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	p.Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conf", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "01.09.2025")
}
