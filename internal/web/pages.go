package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/npek/portal/internal/api"
)

// Pages serves the static informational pages.
type Pages struct {
	render *Renderer
	now    func() time.Time
}

func NewPages(render *Renderer) *Pages {
	return &Pages{render: render, now: time.Now}
}

func (p *Pages) Register(r chi.Router) {
	r.Get(api.Index, p.handleIndex)
	r.Get(api.Info, p.handleInfo)
	r.Get(api.Conf, p.handleConf)
}

func (p *Pages) handleIndex(w http.ResponseWriter, r *http.Request) {
	p.render.Render(w, r, http.StatusOK, "index", "", nil)
}

func (p *Pages) handleInfo(w http.ResponseWriter, r *http.Request) {
	p.render.Render(w, r, http.StatusOK, "info", "Информация", nil)
}

func (p *Pages) handleConf(w http.ResponseWriter, r *http.Request) {
	p.render.Render(w, r, http.StatusOK, "conf", "Конференция", p.now().Format("02.01.2006"))
}
