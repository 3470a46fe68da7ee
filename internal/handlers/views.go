package handlers

import (
	"github.com/gofiber/template/html/v3"
)

// NewViewEngine creates the template engine for dir with the helper
// functions the views use.
func NewViewEngine(dir string, reload bool) *html.Engine {
	engine := html.New(dir, ".html")
	engine.Reload(reload)
	engine.AddFunc("inc", func(i int) int { return i + 1 })
	return engine
}
