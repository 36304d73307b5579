package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/npek/portal/internal/api"
	"github.com/npek/portal/internal/delivery"
	"github.com/npek/portal/internal/user"
	"github.com/npek/portal/internal/web"
)

const (
	stepSelectGroup = "select_group"
	stepSelectUser  = "select_user"
	stepEnterCode   = "enter_code"
)

type loginPage struct {
	Action        string
	Step          string
	Groups        []string
	SelectedGroup string
	Users         []user.User
	Candidate     *user.User
	Error         string
}

type Handler struct {
	service  *Service
	users    *user.Service
	sessions *SessionStore
	render   *web.Renderer
	log      *zap.Logger
}

func NewHandler(service *Service, users *user.Service, sessions *SessionStore, render *web.Renderer, log *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		users:    users,
		sessions: sessions,
		render:   render,
		log:      log,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get(api.Login, h.handleLogin)
	r.Post(api.Login, h.handleLogin)
	r.Get(api.Rub, h.handleRub)
	r.Post(api.Rub, h.handleRub)
	r.Get(api.Blocked, h.handleBlocked)
	r.Get(api.Logout, h.handleLogout)
	r.Get(api.Profile, h.handleProfile)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if user.FromContext(r.Context()) != nil {
		http.Redirect(w, r, api.Profile, http.StatusSeeOther)
		return
	}
	h.serveLogin(w, r, SurfaceStudent)
}

func (h *Handler) handleRub(w http.ResponseWriter, r *http.Request) {
	if u := user.FromContext(r.Context()); u != nil && u.IsTeacher() {
		http.Redirect(w, r, api.Profile, http.StatusSeeOther)
		return
	}
	h.serveLogin(w, r, SurfaceTeacher)
}

func (h *Handler) serveLogin(w http.ResponseWriter, r *http.Request, surface Surface) {
	ctx := r.Context()
	sess := SessionFrom(ctx)

	blocked, err := h.service.IsBlocked(ctx, sess.OriginID)
	if err != nil {
		h.serverError(w, r, "failed to check origin block", err)
		return
	}
	if blocked {
		http.Redirect(w, r, api.Blocked, http.StatusSeeOther)
		return
	}

	if r.Method != http.MethodPost {
		h.renderStart(w, r, surface, "")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderStart(w, r, surface, "")
		return
	}

	switch r.PostFormValue("action") {
	case api.ActionSelectGroup:
		h.selectGroup(w, r, surface, sess)
	case api.ActionSelectUser:
		h.selectUser(w, r, surface, sess)
	case api.ActionVerifyCode:
		h.verifyCode(w, r, surface, sess)
	default:
		h.renderStart(w, r, surface, "")
	}
}

func (h *Handler) selectGroup(w http.ResponseWriter, r *http.Request, surface Surface, sess *Session) {
	group := r.PostFormValue("group")
	if surface != SurfaceStudent || !user.IsValidGroup(group) {
		h.renderStart(w, r, surface, "Выбери группу из списка.")
		return
	}

	sess.SelectedGroup = group
	h.saveSession(w, sess)
	h.renderUsers(w, r, surface, sess, "")
}

func (h *Handler) selectUser(w http.ResponseWriter, r *http.Request, surface Surface, sess *Session) {
	ctx := r.Context()

	userID, err := strconv.ParseUint(r.PostFormValue("user_id"), 10, 64)
	if err != nil || userID == 0 {
		h.renderUsers(w, r, surface, sess, "Выбери себя из списка.")
		return
	}

	u, err := h.service.StartLogin(ctx, surface, uint(userID), sess.SelectedGroup)
	switch {
	case err == nil:
	case errors.Is(err, delivery.ErrDeliveryFailed):
		h.renderUsers(w, r, surface, sess, "Ошибка отправки кода. Попробуй ещё раз.")
		return
	case errors.Is(err, user.ErrUserNotFound), errors.Is(err, ErrAccessDenied):
		h.renderUsers(w, r, surface, sess, "Выбери себя из списка.")
		return
	default:
		h.serverError(w, r, "failed to start login", err)
		return
	}

	sess.LoginUserID = u.ID
	h.saveSession(w, sess)
	h.renderCode(w, r, surface, u, "")
}

func (h *Handler) verifyCode(w http.ResponseWriter, r *http.Request, surface Surface, sess *Session) {
	ctx := r.Context()
	submitted := strings.TrimSpace(r.PostFormValue("code"))

	result, err := h.service.SubmitCode(ctx, sess.OriginID, sess.LoginUserID, submitted)
	switch {
	case err == nil:
		sess.UserID = sess.LoginUserID
		sess.LoginUserID = 0
		h.saveSession(w, sess)
		http.Redirect(w, r, api.Profile, http.StatusSeeOther)
	case errors.Is(err, ErrOriginBlocked):
		http.Redirect(w, r, api.Blocked, http.StatusSeeOther)
	case errors.Is(err, ErrNotAuthenticated):
		h.renderStart(w, r, surface, "Сначала выбери себя из списка.")
	case errors.Is(err, ErrInvalidCode):
		u, lookupErr := h.users.GetByID(ctx, sess.LoginUserID)
		if lookupErr != nil {
			h.renderStart(w, r, surface, "")
			return
		}
		h.renderCode(w, r, surface, u, fmt.Sprintf("Неверный код. Осталось попыток: %d", result.Remaining))
	default:
		h.serverError(w, r, "failed to verify code", err)
	}
}

func (h *Handler) handleBlocked(w http.ResponseWriter, r *http.Request) {
	h.render.Message(w, r, http.StatusForbidden,
		"Доступ заблокирован",
		"Слишком много неверных попыток ввода кода. Попробуй снова через 10 минут.")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	sess.Clear()
	h.saveSession(w, sess)
	http.Redirect(w, r, api.Index, http.StatusSeeOther)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	if user.FromContext(r.Context()) == nil {
		http.Redirect(w, r, api.Login, http.StatusSeeOther)
		return
	}
	h.render.Render(w, r, http.StatusOK, "profile", "Профиль", nil)
}

func (h *Handler) renderStart(w http.ResponseWriter, r *http.Request, surface Surface, msg string) {
	if surface == SurfaceTeacher {
		h.renderUsers(w, r, surface, SessionFrom(r.Context()), msg)
		return
	}
	h.renderLogin(w, r, loginPage{Step: stepSelectGroup, Groups: user.Groups, Error: msg}, surface)
}

func (h *Handler) renderUsers(w http.ResponseWriter, r *http.Request, surface Surface, sess *Session, msg string) {
	ctx := r.Context()

	var (
		users []user.User
		err   error
	)
	if surface == SurfaceTeacher {
		users, err = h.users.ListTeachers(ctx)
	} else {
		if !user.IsValidGroup(sess.SelectedGroup) {
			h.renderLogin(w, r, loginPage{Step: stepSelectGroup, Groups: user.Groups, Error: msg}, surface)
			return
		}
		users, err = h.users.ListByGroup(ctx, sess.SelectedGroup)
	}
	if err != nil {
		h.serverError(w, r, "failed to list users", err)
		return
	}

	page := loginPage{
		Step:  stepSelectUser,
		Users: users,
		Error: msg,
	}
	if surface == SurfaceStudent {
		page.SelectedGroup = sess.SelectedGroup
	}
	h.renderLogin(w, r, page, surface)
}

func (h *Handler) renderCode(w http.ResponseWriter, r *http.Request, surface Surface, u *user.User, msg string) {
	h.renderLogin(w, r, loginPage{Step: stepEnterCode, Candidate: u, Error: msg}, surface)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, page loginPage, surface Surface) {
	title := "Вход"
	page.Action = api.Login
	if surface == SurfaceTeacher {
		title = "Вход для преподавателей"
		page.Action = api.Rub
	}
	h.render.Render(w, r, http.StatusOK, "login", title, page)
}

func (h *Handler) saveSession(w http.ResponseWriter, sess *Session) {
	if err := h.sessions.Save(w, sess); err != nil {
		h.log.Error("failed to save session", zap.Error(err))
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.Error(msg,
		zap.String("path", r.URL.Path),
		zap.Error(err))
	h.render.Message(w, r, http.StatusInternalServerError,
		"Что-то пошло не так",
		"Произошла ошибка. Попробуй ещё раз чуть позже.")
}
