package config

import (
	"path/filepath"
)

// Paths resolves every directory and file the setup tool manages
// from a single installation root. Keeping the resolution in one
// place means diagnostics, the config writer and the installer all
// agree on the layout.
type Paths struct {
	root string
}

// NewPaths creates a Paths resolver rooted at the given directory.
// The root is cleaned but not required to exist.
func NewPaths(root string) *Paths {
	return &Paths{root: filepath.Clean(root)}
}

// Root returns the installation root directory.
func (p *Paths) Root() string {
	return p.root
}

// DataDir returns the directory holding runtime data.
func (p *Paths) DataDir() string {
	return filepath.Join(p.root, "data")
}

// CMSDataDir returns the directory holding the file-based CMS database.
func (p *Paths) CMSDataDir() string {
	return filepath.Join(p.root, "data", "cms")
}

// CacheDir returns the directory holding generated cache files.
func (p *Paths) CacheDir() string {
	return filepath.Join(p.root, "data", "cache")
}

// ConfigDir returns the directory holding configuration files.
func (p *Paths) ConfigDir() string {
	return filepath.Join(p.root, "config")
}

// AutoloadDir returns the directory for auto-loaded configuration fragments.
func (p *Paths) AutoloadDir() string {
	return filepath.Join(p.root, "config", "autoload")
}

// DatabaseConfigFile returns the path of the generated database
// configuration artifact.
func (p *Paths) DatabaseConfigFile() string {
	return filepath.Join(p.AutoloadDir(), "database.local.php")
}

// RequiredDirs returns every directory that must exist and be
// writable for installation to proceed, in a stable order.
func (p *Paths) RequiredDirs() []string {
	return []string{
		p.DataDir(),
		p.CMSDataDir(),
		p.CacheDir(),
		p.ConfigDir(),
		p.AutoloadDir(),
	}
}
