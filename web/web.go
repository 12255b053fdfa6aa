// Package web serves the single-page poster UI.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templates embed.FS

// Register mounts the UI at "/". withName switches the page to the variant
// that asks for a name and submits explicitly; without it the upload starts
// as soon as a file is picked.
func Register(r *gin.Engine, withName bool) {
	r.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/*.html")))
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{"WithName": withName})
	})
}
