package engine

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ashwch/s3tools/internal/runtime"
)

// Descriptor identifies one logical engine and where it is installed.
type Descriptor struct {
	// Name is the stable identifier used in config keys and history.
	Name        string
	DisplayName string
	// Folder is the install folder relative to a search root.
	Folder string
	// Script is the interpretable entry point, e.g. "form_site.py".
	Script string
	// Binary is the compiled entry point without extension. Empty means the
	// script name without its extension.
	Binary string
	// EnvVar names the environment variable that overrides the engine path.
	EnvVar string
}

func (d Descriptor) Label() string {
	if strings.TrimSpace(d.DisplayName) != "" {
		return d.DisplayName
	}
	return d.Name
}

// BinaryName is the compiled file name with the platform extension.
func (d Descriptor) BinaryName() string {
	base := strings.TrimSpace(d.Binary)
	if base == "" {
		base = strings.TrimSuffix(d.Script, filepath.Ext(d.Script))
	}
	return base + runtime.BinaryExt()
}

func (d Descriptor) ScriptPath() string {
	return filepath.Join(d.Folder, d.Script)
}

func (d Descriptor) BinaryPath() string {
	return filepath.Join(d.Folder, d.BinaryName())
}

func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("engine name cannot be empty")
	}
	if strings.TrimSpace(d.Script) == "" && strings.TrimSpace(d.Binary) == "" {
		return fmt.Errorf("engine %q needs a script or binary name", d.Name)
	}
	if filepath.IsAbs(d.Folder) {
		return fmt.Errorf("engine %q folder must be relative: %s", d.Name, d.Folder)
	}
	return nil
}

// Catalog is the set of engines the application knows about.
type Catalog struct {
	descriptors map[string]Descriptor
}

func NewCatalog(descriptors ...Descriptor) (*Catalog, error) {
	c := &Catalog{descriptors: map[string]Descriptor{}}
	for _, d := range descriptors {
		if err := c.Register(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if c.descriptors == nil {
		c.descriptors = map[string]Descriptor{}
	}
	key := normalizeName(d.Name)
	if _, exists := c.descriptors[key]; exists {
		return fmt.Errorf("engine %q registered twice", d.Name)
	}
	c.descriptors[key] = d
	return nil
}

func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	d, ok := c.descriptors[normalizeName(name)]
	return d, ok
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.descriptors))
	for _, d := range c.descriptors {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, 0, len(c.descriptors))
	for _, name := range c.Names() {
		out = append(out, c.descriptors[normalizeName(name)])
	}
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
