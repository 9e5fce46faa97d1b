package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"scriptvault/internal/contextutil"
	"scriptvault/internal/vault"
)

// indexMarkdown is the usage guide rendered on the landing page.
const indexMarkdown = `# Script Vault

Store a script once and run it anywhere through an opaque link.

## Protect a script

` + "```" + `
POST /generate
{"script": "print('hello')", "userId": "your-user-id"}
` + "```" + `

The response contains a ` + "`loadstring`" + ` snippet. Paste it into your
game; the script body never appears in your source.

## Manage your scripts

- ` + "`POST /my-scripts`" + ` with ` + "`{\"userId\": ...}`" + ` lists everything you stored, newest first.
- ` + "`POST /my-scripts/{id}`" + ` with ` + "`{\"script\": ..., \"userId\": ...}`" + ` replaces a script body. The link keeps working.
- ` + "`DELETE /my-scripts/{id}`" + ` with ` + "`{\"userId\": ...}`" + ` removes a script for good.

## Limits

- Scripts up to 50000 characters, 50 scripts per user.
- Resubmitting a script you already stored returns the existing link.
- The raw script endpoint only answers Roblox clients.
`

// IndexHandler renders the landing page: the usage guide plus the live
// script count.
type IndexHandler struct {
	svc      vault.Service
	parser   goldmark.Markdown
	template *template.Template
	content  []byte // pre-rendered markdown body
}

type indexPageData struct {
	Count   int
	Content template.HTML
}

// NewIndexHandler creates a new IndexHandler. The markdown body is
// rendered once at construction; only the count is live.
func NewIndexHandler(svc vault.Service) (*IndexHandler, error) {
	tmpl := template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Script Vault</title>
  <style>
    :root { color-scheme: dark; }
    body {
      margin: 0 auto;
      max-width: 48rem;
      padding: 2rem 1.5rem;
      font-family: system-ui, sans-serif;
      background: #0f172a;
      color: #e2e8f0;
      line-height: 1.6;
    }
    a { color: #38bdf8; }
    code, pre {
      font-family: ui-monospace, monospace;
      background: #1e293b;
      border-radius: 0.375rem;
    }
    code { padding: 0.15rem 0.35rem; }
    pre { padding: 1rem; overflow-x: auto; }
    pre code { padding: 0; }
    .meta {
      color: #94a3b8;
      font-size: 0.95rem;
      margin-bottom: 1.5rem;
    }
  </style>
</head>
<body>
  <p class="meta">{{.Count}} scripts protected and counting.</p>
  <article>{{.Content}}</article>
</body>
</html>`))

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
		),
		goldmark.WithRendererOptions(
			ghhtml.WithUnsafe(),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(indexMarkdown), &buf); err != nil {
		return nil, err
	}

	return &IndexHandler{
		svc:      svc,
		parser:   md,
		template: tmpl,
		content:  buf.Bytes(),
	}, nil
}

// ServeHTTP renders the landing page.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	count, err := h.svc.CountScripts(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to count scripts for index page", "error", err)
		count = 0
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, indexPageData{
		Count:   count,
		Content: template.HTML(h.content),
	}); err != nil {
		logger.ErrorContext(ctx, "failed to execute index template", "error", err)
	}
}
