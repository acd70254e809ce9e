package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .geoloc/ project directory.
type Paths struct {
	Root string // .geoloc/
	DB   string // .geoloc/results.db

	LogDir string // .geoloc/log/
	Log    string // .geoloc/log/geoloc.log

	InboxDir string // .geoloc/inbox/
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".geoloc")
	return &Paths{
		Root: root,
		DB:   filepath.Join(root, "results.db"),

		LogDir: filepath.Join(root, "log"),
		Log:    filepath.Join(root, "log", "geoloc.log"),

		InboxDir: filepath.Join(root, "inbox"),
	}
}

// EnsureDirs creates all subdirectories under .geoloc/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.LogDir, p.InboxDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// CleanOutputs removes *.resolved.jsonl files left in the inbox and
// returns how many were deleted.
func (p *Paths) CleanOutputs() (int, error) {
	matches, err := filepath.Glob(filepath.Join(p.InboxDir, "*.resolved.jsonl"))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return n, err
		}
		n++
	}
	return n, nil
}
