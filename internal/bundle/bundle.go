// Package bundle carries engine binaries packaged into the s3tools executable.
// Release builds copy compiled engines into payload/ before go build; a plain
// checkout ships only the README and therefore no engines.
package bundle

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed all:payload
var payload embed.FS

// FS returns the packaged files rooted at payload/.
func FS() fs.FS {
	sub, err := fs.Sub(payload, "payload")
	if err != nil {
		panic(err)
	}
	return sub
}

// Names lists the packaged engine files, skipping documentation.
func Names() []string {
	var names []string
	_ = fs.WalkDir(FS(), ".", func(p string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if strings.EqualFold(path.Ext(p), ".md") {
			return nil
		}
		names = append(names, p)
		return nil
	})
	return names
}
