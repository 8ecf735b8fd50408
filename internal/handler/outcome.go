package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"studentintake/internal/flash"
	"studentintake/internal/middleware"
	"studentintake/internal/render"
)

// Outcome is what a form handler decided to do: render a page or redirect,
// with messages for the user either way.
type Outcome struct {
	Status   int
	Page     string
	Redirect string
	Messages []flash.Message
	View     render.View
	Cookies  []*http.Cookie
}

func Page(page string, msgs ...flash.Message) Outcome {
	return Outcome{Status: http.StatusOK, Page: page, Messages: msgs}
}

func RedirectTo(path string, msgs ...flash.Message) Outcome {
	return Outcome{Status: http.StatusFound, Redirect: path, Messages: msgs}
}

// Presenter turns Outcomes into HTTP responses.
type Presenter struct {
	renderer *render.Renderer
	flashes  *flash.Jar
}

func NewPresenter(renderer *render.Renderer, flashes *flash.Jar) *Presenter {
	return &Presenter{renderer: renderer, flashes: flashes}
}

func (p *Presenter) Handle(fn func(r *http.Request) Outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.apply(w, r, fn(r))
	}
}

func (p *Presenter) apply(w http.ResponseWriter, r *http.Request, o Outcome) {
	log := middleware.Logger(r.Context())
	for _, c := range o.Cookies {
		http.SetCookie(w, c)
	}

	if o.Redirect != "" {
		if err := p.flashes.Set(w, o.Messages...); err != nil {
			log.WithError(err).Warn("could not queue flash messages")
		}
		status := o.Status
		if status < 300 || status >= 400 {
			status = http.StatusFound
		}
		http.Redirect(w, r, o.Redirect, status)
		return
	}

	view := o.View
	view.User = middleware.CurrentUser(r.Context())
	view.Messages = append(p.flashes.Pop(w, r), o.Messages...)
	status := o.Status
	if status == 0 {
		status = http.StatusOK
	}
	if err := p.renderer.Page(w, status, o.Page, view); err != nil {
		log.WithFields(logrus.Fields{"page": o.Page, "error": err}).Error("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
