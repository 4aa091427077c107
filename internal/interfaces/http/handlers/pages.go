package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "layout.html"

var pageTemplates = []string{
	"dashboard.html",
	"agents.html",
	"agent_form.html",
	"workflows.html",
	"workflow_form.html",
	"confirm.html",
	"run.html",
	"settings.html",
	"error.html",
}

// Notice is the transient message shown at the top of a page.
type Notice struct {
	Text  string
	Error bool
}

// PageData is what every page template receives.
type PageData struct {
	Title  string
	Active string
	Notice *Notice
	// NoticeTTL is in milliseconds, for the dismiss timer in the page.
	NoticeTTL int64
	Data      any
}

// Pages holds one parsed template per page, each a clone of the layout.
type Pages struct {
	pages     map[string]*template.Template
	noticeTTL func() time.Duration
	logger    *zap.Logger
}

// NewPages parses the embedded templates. noticeTTL is read per request.
func NewPages(noticeTTL func() time.Duration, logger *zap.Logger) (*Pages, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	funcs := template.FuncMap{
		"markdown": func(s string) template.HTML {
			var buf bytes.Buffer
			if err := md.Convert([]byte(s), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(s))
			}
			return template.HTML(buf.String())
		},
		"ago": func(t time.Time) string {
			return units.HumanDuration(time.Since(t)) + " ago"
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v)
		},
		"inc": func(i int) int { return i + 1 },
	}

	layout, err := template.New(layoutTemplate).Funcs(funcs).ParseFS(templateFS, "templates/"+layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	if noticeTTL == nil {
		noticeTTL = func() time.Duration { return 3 * time.Second }
	}
	return &Pages{pages: pages, noticeTTL: noticeTTL, logger: logger}, nil
}

// Render writes page with status. A pending flash notice is picked up
// unless data already carries one.
func (p *Pages) Render(c *gin.Context, status int, page string, data PageData) {
	t, ok := p.pages[page]
	if !ok {
		p.logger.Error("Template not found", zap.String("page", page))
		c.String(http.StatusInternalServerError, "template not found: %s", page)
		return
	}
	if data.Notice == nil {
		data.Notice = takeFlash(c)
	}
	data.NoticeTTL = p.noticeTTL().Milliseconds()

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		p.logger.Error("Failed to render page", zap.String("page", page), zap.Error(err))
		c.String(http.StatusInternalServerError, "render error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// Error renders the error page.
func (p *Pages) Error(c *gin.Context, status int, text string) {
	p.Render(c, status, "error.html", PageData{
		Title: http.StatusText(status),
		Data:  text,
	})
}

const flashCookie = "agentops_flash"

// setFlash stores a notice for the page the redirect lands on.
func setFlash(c *gin.Context, text string, isErr bool) {
	kind := "ok"
	if isErr {
		kind = "err"
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(flashCookie, kind+"|"+text, 60, "/", "", false, true)
}

func takeFlash(c *gin.Context) *Notice {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	kind, text, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	return &Notice{Text: text, Error: kind == "err"}
}
