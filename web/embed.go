// Package web embeds the dashboard frontend served at "/".
package web

import "embed"

// Content is the static root: the page, its script and stylesheet.
//
//go:embed index.html app.js styles.css
var Content embed.FS
