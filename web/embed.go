// Package web embeds the exercise tracker's HTML form and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed views public
var files embed.FS

// Views holds index.html.
func Views() fs.FS {
	sub, err := fs.Sub(files, "views")
	if err != nil {
		panic(err)
	}
	return sub
}

// Public holds the assets served under /public.
func Public() fs.FS {
	sub, err := fs.Sub(files, "public")
	if err != nil {
		panic(err)
	}
	return sub
}
