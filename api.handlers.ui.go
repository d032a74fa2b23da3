package main

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed web
var webAssets embed.FS

// UIHandler serves the embedded single page application under /ui.
func UIHandler() http.Handler {
	sub, err := fs.Sub(webAssets, "web")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/ui", http.FileServer(http.FS(sub)))
}
