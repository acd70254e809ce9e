// Package web serves the JSON API and a small embedded match page over HTTP.
// It binds to localhost by default; there is no auth.
package web

import "embed"

//go:embed static/index.html
var staticFS embed.FS
