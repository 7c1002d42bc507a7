package handlers

import (
	"embed"
	"html/template"

	"github.com/gin-contrib/multitemplate"
)

//go:embed templates/*.html
var templateFS embed.FS

const shoppingListTemplate = "shopping_list.html"

// LoadTemplates registers each page as the layout followed by the page's
// "title" and "content" definitions.
func LoadTemplates() (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
	}

	layout, err := templateFS.ReadFile("templates/layout.html")
	if err != nil {
		return nil, err
	}
	for _, view := range []string{shoppingListTemplate} {
		body, err := templateFS.ReadFile("templates/" + view)
		if err != nil {
			return nil, err
		}
		r.AddFromStringsFuncs(view, funcMap, string(layout), string(body))
	}
	return r, nil
}
