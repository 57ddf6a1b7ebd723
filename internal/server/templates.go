package server

import (
	"embed"
	"html/template"
	"strconv"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"f2": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
		"f4": func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) },
	}
	return template.New("svrdash").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}
