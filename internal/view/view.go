// Package view renders the HTML pages from embedded templates.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/BuzzLyutic/task-list/internal/model"
	"github.com/BuzzLyutic/task-list/pkg/flash"
)

//go:embed templates/*.html
var templates embed.FS

const (
	PageIndex = "index"
	PageShow  = "show"
	PageNew   = "new"
	PageEdit  = "edit"
)

// Form is what the new and edit pages post back.
type Form struct {
	Action         string
	Method         string
	Name           string
	Description    string
	CompletionDate string
	IdempotencyKey string
}

type Page struct {
	Title  string
	Flash  *flash.Message
	Tasks  []model.Task
	Task   model.Task
	Form   Form
	Errors []string
}

// DateTimeLocal is the layout of an <input type="datetime-local"> value.
const DateTimeLocal = "2006-01-02T15:04"

var funcs = template.FuncMap{
	"formatTime": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("Jan 2, 2006 15:04 MST")
	},
}

type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageIndex, PageShow, PageNew, PageEdit} {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templates,
			"templates/layout.html",
			"templates/form.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes the page fully before returning, so a template error never
// leaves a half-written response.
func (r *Renderer) Render(page string, data Page) ([]byte, error) {
	t, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormFor fills a form from an existing task.
func FormFor(t model.Task, action, method string) Form {
	f := Form{
		Action:      action,
		Method:      method,
		Name:        t.Name,
		Description: t.Description,
	}
	if t.CompletionDate != nil {
		f.CompletionDate = t.CompletionDate.Format(DateTimeLocal)
	}
	return f
}
