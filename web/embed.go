// Package web embeds templates and static assets for release builds.
package web

import "embed"

// EmbeddedFS contains all templates and static assets.
//
//go:embed templates static
var EmbeddedFS embed.FS
