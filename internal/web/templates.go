package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"github.com/lepinkainen/marquee/internal/browse"
	"github.com/lepinkainen/marquee/internal/catalog"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const defaultPoster = "/static/default-poster.svg"

var viewTemplates = map[browse.Kind]string{
	browse.Grid:   "templates/grid.html",
	browse.Detail: "templates/detail.html",
	browse.Player: "templates/player.html",
	browse.Error:  "templates/error.html",
}

// pageData is what every view template renders.
type pageData struct {
	Snapshot browse.Snapshot
	Filter   string
	Genres   []string
}

// parseTemplates builds one template set per view kind, each wrapped in
// the shared layout.
func parseTemplates(posterSrc func(string) string) (map[browse.Kind]*template.Template, error) {
	funcMap := template.FuncMap{
		"poster": func(path string) string {
			if path == "" {
				return defaultPoster
			}
			return posterSrc(path)
		},
		"join":  strings.Join,
		"lower": strings.ToLower,
	}

	sets := make(map[browse.Kind]*template.Template, len(viewTemplates))
	for kind, file := range viewTemplates {
		tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		sets[kind] = tmpl
	}
	return sets, nil
}

func staticFiles() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func newPageData(snap browse.Snapshot) pageData {
	return pageData{
		Snapshot: snap,
		Filter:   snap.View.Filter,
		Genres:   catalog.GenreNamesSorted(),
	}
}
