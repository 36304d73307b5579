package access

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/npek/portal/internal/api"
	"github.com/npek/portal/internal/auth"
	"github.com/npek/portal/internal/user"
	"github.com/npek/portal/internal/web"
)

const (
	socialStudiesTitle = "Обществознание"
	philosophyTitle    = "Основы философии"
)

// DocumentURL is the Google Docs address of a document.
func DocumentURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://docs.google.com/document/d/" + id
}

// PreviewURL is the embeddable view of a document.
func PreviewURL(id string) string {
	if id == "" {
		return ""
	}
	return DocumentURL(id) + "/preview"
}

type documentPage struct {
	Subject        string
	URL            string
	PreviewURL     string
	FullscreenPath string
	BackPath       string
}

type Handler struct {
	policy   *Policy
	sessions *auth.SessionStore
	render   *web.Renderer
	log      *zap.Logger
}

func NewHandler(policy *Policy, sessions *auth.SessionStore, render *web.Renderer, log *zap.Logger) *Handler {
	return &Handler{
		policy:   policy,
		sessions: sessions,
		render:   render,
		log:      log,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get(api.SocialStudies, h.handleSocialStudies)
	r.Get(api.SocialStudiesGroup, h.handleSocialStudiesGroup)
	r.Get(api.SocialStudiesDocument, h.handleSocialStudiesDocument)
	r.Get(api.SocialStudiesFullscreen, h.handleSocialStudiesFullscreen)
	r.Get(api.Philosophy, h.handlePhilosophy)
	r.Get(api.PhilosophyDocument, h.handlePhilosophyDocument)
	r.Get(api.PhilosophyFullscreen, h.handlePhilosophyFullscreen)
}

func (h *Handler) socialStudies(r *http.Request) Decision {
	sess := auth.SessionFrom(r.Context())
	return h.policy.SocialStudies(user.FromContext(r.Context()), sess.PreviewGroup)
}

func (h *Handler) handleSocialStudies(w http.ResponseWriter, r *http.Request) {
	d := h.policy.SocialStudies(user.FromContext(r.Context()), "")
	if !h.allowed(w, r, d, "Дисциплина «Обществознание» недоступна для вашей группы.") {
		return
	}

	if d.CanPreview {
		h.render.Render(w, r, http.StatusOK, "social_select", socialStudiesTitle, h.policy.PreviewGroups())
		return
	}
	h.render.Render(w, r, http.StatusOK, "social", socialStudiesTitle, "")
}

func (h *Handler) handleSocialStudiesGroup(w http.ResponseWriter, r *http.Request) {
	d := h.policy.SocialStudies(user.FromContext(r.Context()), "")
	if d.Outcome == Granted && !d.CanPreview {
		d = Decision{Outcome: AccessDenied}
	}
	if !h.allowed(w, r, d, "Эта страница доступна только администраторам и учителям.") {
		return
	}

	group := chi.URLParam(r, "group")
	if !h.policy.IsPreviewGroup(group) {
		h.render.Message(w, r, http.StatusNotFound, "Группа не найдена", "Выбери группу из списка.")
		return
	}

	sess := auth.SessionFrom(r.Context())
	sess.PreviewGroup = group
	if err := h.sessions.Save(w, sess); err != nil {
		h.log.Error("failed to save session", zap.Error(err))
	}

	h.render.Render(w, r, http.StatusOK, "social", socialStudiesTitle, group)
}

func (h *Handler) handleSocialStudiesDocument(w http.ResponseWriter, r *http.Request) {
	d := h.socialStudies(r)
	if !h.allowed(w, r, d, "Дисциплина «Обществознание» недоступна для вашей группы.") {
		return
	}
	h.render.Render(w, r, http.StatusOK, "document", socialStudiesTitle, documentPage{
		Subject:        socialStudiesTitle,
		URL:            DocumentURL(d.DocumentID),
		PreviewURL:     PreviewURL(d.DocumentID),
		FullscreenPath: api.SocialStudiesFullscreen,
		BackPath:       api.SocialStudies,
	})
}

func (h *Handler) handleSocialStudiesFullscreen(w http.ResponseWriter, r *http.Request) {
	d := h.socialStudies(r)
	if !h.allowed(w, r, d, "Дисциплина «Обществознание» недоступна для вашей группы.") {
		return
	}
	h.render.Render(w, r, http.StatusOK, "fullscreen", socialStudiesTitle, documentPage{
		Subject:    socialStudiesTitle,
		PreviewURL: PreviewURL(d.DocumentID),
		BackPath:   api.SocialStudiesDocument,
	})
}

const philosophyDenied = "Дисциплина «Основы философии» доступна только для групп ЭС24 и ТЭС24."

func (h *Handler) handlePhilosophy(w http.ResponseWriter, r *http.Request) {
	if !h.allowed(w, r, h.policy.Philosophy(user.FromContext(r.Context())), philosophyDenied) {
		return
	}
	h.render.Render(w, r, http.StatusOK, "philosophy", philosophyTitle, nil)
}

func (h *Handler) handlePhilosophyDocument(w http.ResponseWriter, r *http.Request) {
	d := h.policy.Philosophy(user.FromContext(r.Context()))
	if !h.allowed(w, r, d, philosophyDenied) {
		return
	}
	h.render.Render(w, r, http.StatusOK, "document", philosophyTitle, documentPage{
		Subject:        philosophyTitle,
		URL:            DocumentURL(d.DocumentID),
		PreviewURL:     PreviewURL(d.DocumentID),
		FullscreenPath: api.PhilosophyFullscreen,
		BackPath:       api.Philosophy,
	})
}

func (h *Handler) handlePhilosophyFullscreen(w http.ResponseWriter, r *http.Request) {
	d := h.policy.Philosophy(user.FromContext(r.Context()))
	if !h.allowed(w, r, d, philosophyDenied) {
		return
	}
	h.render.Render(w, r, http.StatusOK, "fullscreen", philosophyTitle, documentPage{
		Subject:    philosophyTitle,
		PreviewURL: PreviewURL(d.DocumentID),
		BackPath:   api.PhilosophyDocument,
	})
}

// allowed renders the refusal page for d and reports whether the caller may continue.
func (h *Handler) allowed(w http.ResponseWriter, r *http.Request, d Decision, denied string) bool {
	switch d.Outcome {
	case Granted:
		return true
	case AuthenticationRequired:
		h.render.Message(w, r, http.StatusUnauthorized,
			"Необходима авторизация",
			"Для доступа к материалам необходимо войти в систему.")
	default:
		h.render.Message(w, r, http.StatusForbidden, "Доступ ограничен", denied)
	}
	return false
}
