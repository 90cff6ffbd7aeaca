package templates

import (
	"bytes"
	"context"
	"fmt"
	htmltmpl "html/template"
	"io/fs"
	"sync"
	texttmpl "text/template"
)

// Rendered holds the materialized content from a scenario template.
type Rendered struct {
	Subject   string
	EmailHTML string
	EmailText string
}

// Handle is a typed handle for a template scenario, binding the scenario ID
// to the data type it expects at compile time.
type Handle[T any] struct {
	id string
}

// Expect creates a typed handle for a given template ID (e.g., "auth.verify_email").
func Expect[T any](id string) Handle[T] { return Handle[T]{id: id} }

func (h Handle[T]) ID() string { return h.id }

// Engine compiles and renders scenario templates from the embedded FS.
type Engine struct {
	fs    fs.FS
	mu    sync.RWMutex
	cache map[string]*compiled
}

type compiled struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

// NewEngine creates a template engine over the embedded templates.
func NewEngine() *Engine {
	return &Engine{
		fs:    EmbeddedFS,
		cache: make(map[string]*compiled),
	}
}

// Render is a typed helper that enforces the data type associated with the handle.
func Render[T any](ctx context.Context, e *Engine, h Handle[T], data T) (Rendered, error) {
	return e.RenderAny(ctx, h.ID(), data)
}

// RenderAny renders a scenario by ID. Prefer the typed Render helper in
// internal code.
func (e *Engine) RenderAny(ctx context.Context, id string, data any) (Rendered, error) {
	c, err := e.getCompiled(id)
	if err != nil {
		return Rendered{}, err
	}

	var out Rendered
	if c.text.Lookup("subject") != nil {
		if out.Subject, err = execText(c.text, "subject", data); err != nil {
			return Rendered{}, fmt.Errorf("render subject: %w", err)
		}
	}
	if c.text.Lookup("email_text") != nil {
		if out.EmailText, err = execText(c.text, "email_text", data); err != nil {
			return Rendered{}, fmt.Errorf("render email_text: %w", err)
		}
	}
	if c.html.Lookup("email_html") != nil {
		if out.EmailHTML, err = execHTML(c.html, "email_html", data); err != nil {
			return Rendered{}, fmt.Errorf("render email_html: %w", err)
		}
	}

	return out, nil
}

func (e *Engine) getCompiled(id string) (*compiled, error) {
	e.mu.RLock()
	cached, ok := e.cache[id]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	path := "files/" + id + ".tmpl"
	b, err := fs.ReadFile(e.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read embedded template %q: %w", path, err)
	}

	// text/template for subject and email_text, html/template for email_html.
	tText, err := texttmpl.New(id).Option("missingkey=error").Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse text blocks (%s): %w", id, err)
	}
	tHTML, err := htmltmpl.New(id).Option("missingkey=error").Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse html block (%s): %w", id, err)
	}

	c := &compiled{text: tText, html: tHTML}
	e.mu.Lock()
	e.cache[id] = c
	e.mu.Unlock()
	return c, nil
}

func execText(t *texttmpl.Template, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func execHTML(t *htmltmpl.Template, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
