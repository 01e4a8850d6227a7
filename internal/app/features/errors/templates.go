// internal/app/features/errors/templates.go
package errors

import (
	"embed"
	"html/template"
)

//go:embed templates/*.gohtml
var FS embed.FS

var pages = template.Must(template.ParseFS(FS, "templates/*.gohtml"))
