package store

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	dirName        = ".folio"
	sqliteFileName = "folio.sqlite"
	lockFileName   = "folio.lock"
)

// Store is a handle on a portfolio directory. It is a value type; every operation opens
// the database on demand.
type Store struct {
	Dir string
	Log *zap.Logger
}

func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, dirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultDir returns the nearest .folio directory above the working directory, or
// .folio in the working directory when there is none.
func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, dirName), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string { return filepath.Join(s.Dir, sqliteFileName) }

// ModTime returns the latest modification time of the database files, or the zero time
// when nothing has been written yet.
func (s Store) ModTime() time.Time {
	var latest time.Time
	for _, p := range []string{s.sqlitePath(), s.sqlitePath() + "-wal"} {
		if st, err := os.Stat(p); err == nil && st.ModTime().After(latest) {
			latest = st.ModTime()
		}
	}
	return latest
}

func (s Store) lockPath() string { return filepath.Join(s.Dir, lockFileName) }

func (s Store) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
