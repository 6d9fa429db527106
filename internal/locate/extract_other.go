//go:build !unix

package locate

import "io/fs"

// Windows keeps the cache under the per-user LocalAppData folder and has no
// POSIX owner or mode bits to check.
func ownedByCurrentUser(fs.FileInfo) bool { return true }

func writableByOthers(fs.FileInfo) bool { return false }
