package render

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/pkg/errors"

	"studentintake/internal/flash"
	"studentintake/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"index", "about", "signup", "login", "student_form"}

// View is the data every page template receives.
type View struct {
	User     *model.User
	Messages []flash.Message
	Form     map[string]string
	Selected map[string]map[string]bool
	Streams  []string
	Subjects []string
}

// Option lists for the student form.
var (
	Streams  = []string{"Science", "Commerce", "Arts", "Vocational"}
	Subjects = []string{"Math", "Physics", "Chemistry", "Biology", "English", "Computer Science", "Economics", "Accountancy", "History", "Geography"}
)

type Renderer struct {
	templates map[string]*template.Template
}

func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %s", page)
		}
		r.templates[page] = t
	}
	return r, nil
}

// Page writes the named page wrapped in the layout. The page is rendered to
// a buffer first so a template error never produces a half-written response.
func (r *Renderer) Page(w http.ResponseWriter, status int, page string, view View) error {
	t, ok := r.templates[page]
	if !ok {
		return errors.Errorf("unknown page %q", page)
	}
	if view.Streams == nil {
		view.Streams = Streams
	}
	if view.Subjects == nil {
		view.Subjects = Subjects
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", view); err != nil {
		return errors.Wrapf(err, "rendering %s", page)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
