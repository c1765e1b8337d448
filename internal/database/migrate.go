package database

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Migration is one versioned pair of SQL scripts.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// ID is the zero-padded file stem, e.g. 000002_password_resets.
func (m Migration) ID() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// Checksum fingerprints the up script so edits to applied files are noticed.
func (m Migration) Checksum() string {
	sum := sha256.Sum256([]byte(m.Up))
	return hex.EncodeToString(sum[:])
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var (
	embeddedOnce sync.Once
	embedded     []Migration
	embeddedErr  error
)

// EmbeddedMigrations returns the migrations compiled into the binary.
func EmbeddedMigrations() ([]Migration, error) {
	embeddedOnce.Do(func() {
		embedded, embeddedErr = LoadMigrations(migrationFS, "migrations")
	})
	return embedded, embeddedErr
}

// LoadMigrations reads `<version>_<name>.up.sql` / `.down.sql` pairs from dir.
// Every up script needs a down script, and versions must be positive and unique.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	byVersion := make(map[int]Migration)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		stem := strings.TrimSuffix(name, ".up.sql")
		rawVersion, label, ok := strings.Cut(stem, "_")
		if !ok || label == "" {
			return nil, fmt.Errorf("migration %s: expected <version>_<name>.up.sql", name)
		}
		version, err := strconv.Atoi(rawVersion)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: invalid version %q", name, rawVersion)
		}
		if prev, dup := byVersion[version]; dup {
			return nil, fmt.Errorf("migration %s: version %d already used by %s", name, version, prev.ID())
		}

		up, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, stem+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", stem, err)
		}

		byVersion[version] = Migration{Version: version, Name: label, Up: string(up), Down: string(down)}
	}

	set := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		set = append(set, m)
	}
	sort.Slice(set, func(i, j int) bool { return set[i].Version < set[j].Version })
	return set, nil
}

func findMigration(set []Migration, version int) (Migration, bool) {
	for _, m := range set {
		if m.Version == version {
			return m, true
		}
	}
	return Migration{}, false
}
