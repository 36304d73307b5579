package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/npek/portal/internal/user"
)

// SessionMiddleware loads the session cookie and the signed-in user into the request context.
type SessionMiddleware struct {
	sessions *SessionStore
	users    *user.Service
	log      *zap.Logger
}

func NewSessionMiddleware(sessions *SessionStore, users *user.Service, log *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		users:    users,
		log:      log,
	}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := m.sessions.Load(r)
		dirty := sess.fresh

		if sess.UserID != 0 {
			u, err := m.users.GetByID(ctx, sess.UserID)
			switch {
			case err == nil:
				ctx = user.NewContext(ctx, u)
			case errors.Is(err, user.ErrUserNotFound):
				// the account is gone; drop the stale sign-in
				sess.Clear()
				dirty = true
			default:
				m.log.Error("failed to load session user",
					zap.Uint("user_id", sess.UserID),
					zap.Error(err))
			}
		}

		if dirty {
			if err := m.sessions.Save(w, sess); err != nil {
				m.log.Error("failed to save session", zap.Error(err))
			}
		}

		next.ServeHTTP(w, r.WithContext(withSession(ctx, sess)))
	})
}
