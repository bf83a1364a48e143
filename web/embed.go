package web

import "embed"

// TemplatesFS embeds the layout, the page templates and the partials.
//
//go:embed templates/*.html templates/pages/*.html templates/partials/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js).
//
//go:embed static/*
var StaticFS embed.FS
