package locate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/ashwch/s3tools/internal/appdirs"
	"github.com/ashwch/s3tools/internal/engine"
	"github.com/ashwch/s3tools/internal/logging"
)

// Extractor copies packaged engine binaries out of a bundle into a per-engine
// cache directory. A copy that already exists is reused and never replaced,
// as long as the current user owns it and nobody else can write to it.
type Extractor struct {
	Bundle    fs.FS
	CacheRoot string
	Logger    *log.Logger

	group singleflight.Group
}

// Extract returns the cached path of d's packaged binary. ok is false when the
// bundle has no copy of it.
func (e *Extractor) Extract(d engine.Descriptor) (string, bool, error) {
	if e == nil || e.Bundle == nil {
		return "", false, nil
	}
	name := d.BinaryName()
	source, found, err := findPackaged(e.Bundle, name)
	if err != nil || !found {
		return "", false, err
	}

	dir := appdirs.EngineCacheDir(e.CacheRoot, d.Name)
	target := filepath.Join(dir, name)
	v, err, _ := e.group.Do(target, func() (any, error) {
		if _, err := appdirs.EnsureEngineCacheDir(e.CacheRoot, d.Name); err != nil {
			return target, err
		}
		return target, e.extractOnce(source, target)
	})
	if err != nil {
		return "", false, err
	}
	return v.(string), true, nil
}

func (e *Extractor) extractOnce(source, target string) error {
	logger := logging.Or(e.Logger)
	if isRegularFile(target) {
		if err := trustedCopy(target); err != nil {
			return err
		}
		logger.Debug("reusing extracted engine", "path", target)
		return nil
	}

	dir := filepath.Dir(target)

	in, err := e.Bundle.Open(source)
	if err != nil {
		return fmt.Errorf("could not open packaged engine %s: %w", source, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(dir, ".extract-*")
	if err != nil {
		return fmt.Errorf("could not create engine temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not extract packaged engine: %w", err)
	}
	if err := tmp.Chmod(0o755); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not mark engine executable: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not finish engine extraction: %w", err)
	}

	// Link fails instead of replacing, so a copy another process finished
	// first stays in place.
	if err := os.Link(tmpName, target); err != nil {
		if isRegularFile(target) {
			return trustedCopy(target)
		}
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("engine cache path is not a regular file: %s", target)
		}
		if renameErr := os.Rename(tmpName, target); renameErr != nil {
			return fmt.Errorf("could not place extracted engine: %w", err)
		}
	}
	logger.Info("extracted packaged engine", "path", target)
	return nil
}

// findPackaged looks for name anywhere in bundle, ignoring case.
func findPackaged(bundle fs.FS, name string) (string, bool, error) {
	var match string
	err := fs.WalkDir(bundle, ".", func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		if strings.EqualFold(path.Base(p), name) {
			match = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("could not read engine bundle: %w", err)
	}
	return match, match != "", nil
}

// trustedCopy rejects a cached engine that another user owns or could have
// replaced.
func trustedCopy(p string) error {
	info, err := os.Lstat(p)
	if err != nil {
		return fmt.Errorf("could not inspect extracted engine: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("engine cache path is not a regular file: %s", p)
	}
	if !ownedByCurrentUser(info) {
		return fmt.Errorf("extracted engine %s is owned by another user", p)
	}
	if writableByOthers(info) {
		return fmt.Errorf("extracted engine %s is writable by other users (mode %s)", p, info.Mode().Perm())
	}
	return nil
}

func isRegularFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
