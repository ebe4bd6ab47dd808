// Package cli wires the measurement engine into a command line tool for
// headless use: measuring sources in image files and managing the report
// archive.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"starpick/internal/archive"
	"starpick/internal/frame"
	"starpick/internal/region"
	"starpick/internal/report"
	"starpick/internal/session"
)

// Root carries the state shared by all commands.
type Root struct {
	log      *slog.Logger
	settings session.Settings
	dbPath   string
}

// NewRoot constructs the CLI root state. dbPath may be empty to disable the
// archive.
func NewRoot(settings session.Settings, dbPath string, log *slog.Logger) *Root {
	if log == nil {
		log = slog.Default()
	}
	return &Root{log: log, settings: settings, dbPath: dbPath}
}

// DefaultDBPath returns the per-user measurement archive location.
func DefaultDBPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "starpick", "measurements.db")
}

func (r *Root) openStore() (*archive.Store, error) {
	if r.dbPath == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(r.dbPath), 0o755); err != nil {
		return nil, err
	}
	return archive.Open(r.dbPath)
}

// newSession builds a headless session around an image file.
func (r *Root) newSession(imagePath string, store *archive.Store) (*session.Session, error) {
	img, err := frame.Load(imagePath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", imagePath, err)
	}

	sess := session.New("cli", &region.NopCanvas{}, r.settings, store, r.log)
	sess.SetImage(img)
	return sess, nil
}

// archivedReport materializes the archive contents as a report.
func (r *Root) archivedReport() (*report.Report, error) {
	store, err := r.openStore()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("no archive configured")
	}
	defer store.Close()

	rows, err := store.Rows()
	if err != nil {
		return nil, err
	}
	rep := report.New()
	for _, row := range rows {
		rep.Add(row)
	}
	return rep, nil
}
