// Package assets embeds the browser front-end served by the web UI.
package assets

import (
	"embed"
)

//go:embed web/index.html web/app.js web/style.css
var FS embed.FS

// Index returns the page served at "/".
func Index() ([]byte, error) {
	return FS.ReadFile("web/index.html")
}
