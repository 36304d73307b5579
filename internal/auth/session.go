package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/npek/portal/internal/config"
)

// Session is the per-browser login state. It lives in a signed cookie.
type Session struct {
	// OriginID identifies the browser for lockouts. It survives logout.
	OriginID      string
	UserID        uint
	LoginUserID   uint
	SelectedGroup string
	PreviewGroup  string

	fresh bool
}

// Clear signs the browser out and forgets any half-finished login.
func (s *Session) Clear() {
	*s = Session{OriginID: s.OriginID}
}

type Claims struct {
	OriginID      string `json:"oid"`
	UserID        uint   `json:"uid,omitempty"`
	LoginUserID   uint   `json:"luid,omitempty"`
	SelectedGroup string `json:"grp,omitempty"`
	PreviewGroup  string `json:"pgrp,omitempty"`
	jwt.RegisteredClaims
}

type SessionStore struct {
	config *config.AuthConfig
	now    func() time.Time
}

func NewSessionStore(config *config.AuthConfig) *SessionStore {
	return &SessionStore{
		config: config,
		now:    time.Now,
	}
}

func (s *SessionStore) Encode(sess *Session) (string, error) {
	now := s.now()
	claims := &Claims{
		OriginID:      sess.OriginID,
		UserID:        sess.UserID,
		LoginUserID:   sess.LoginUserID,
		SelectedGroup: sess.SelectedGroup,
		PreviewGroup:  sess.PreviewGroup,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.SessionLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SecretKey))
}

func (s *SessionStore) Decode(tokenString string) (*Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.SecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.OriginID == "" {
		return nil, errors.New("invalid session")
	}

	return &Session{
		OriginID:      claims.OriginID,
		UserID:        claims.UserID,
		LoginUserID:   claims.LoginUserID,
		SelectedGroup: claims.SelectedGroup,
		PreviewGroup:  claims.PreviewGroup,
	}, nil
}

// Load returns the request's session, or a fresh one with a new origin id.
func (s *SessionStore) Load(r *http.Request) *Session {
	if cookie, err := r.Cookie(s.config.CookieName); err == nil {
		if sess, err := s.Decode(cookie.Value); err == nil {
			return sess
		}
	}
	return &Session{OriginID: uuid.NewString(), fresh: true}
}

// Save writes sess as the response cookie, replacing one set earlier in the same response.
func (s *SessionStore) Save(w http.ResponseWriter, sess *Session) error {
	value, err := s.Encode(sess)
	if err != nil {
		return err
	}

	header := w.Header()
	prefix := s.config.CookieName + "="
	var kept []string
	for _, c := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(c, prefix) {
			kept = append(kept, c)
		}
	}
	header.Del("Set-Cookie")
	for _, c := range kept {
		header.Add("Set-Cookie", c)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.config.SessionLifetime.Seconds()),
		HttpOnly: true,
		Secure:   s.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	sess.fresh = false
	return nil
}

type sessionKey struct{}

func withSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session loaded by the middleware. Outside of it a
// throwaway session is returned so callers never see nil.
func SessionFrom(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return sess
	}
	return &Session{OriginID: uuid.NewString(), fresh: true}
}
