package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// appendOnlyTables hold ledger history; an Up section must never drop or
// truncate them.
var appendOnlyTables = []string{"vault_movements", "client_movements"}

const (
	markerUp        = "-- +goose Up"
	markerDown      = "-- +goose Down"
	markerStmtBegin = "-- +goose StatementBegin"
	markerStmtEnd   = "-- +goose StatementEnd"
)

// Migration is one parsed migration file.
type Migration struct {
	Version int64
	Name    string
	File    string
}

// ValidateDir checks the migrations in dir. See ValidateFS.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	_, err := ValidateFS(os.DirFS(dir))
	return err
}

// ValidateFS checks filenames, versions and goose annotations of every .sql
// file at the root of fsys and returns them sorted by version. All problems
// are reported together.
func ValidateFS(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var (
		problems   error
		migrations []Migration
		seen       = map[int64]string{}
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		version, _ := strconv.ParseInt(m[1], 10, 64)
		if prev, ok := seen[version]; ok {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %d already used by %s", name, version, prev))
			continue
		}
		seen[version] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err := checkAnnotations(name, string(body)); err != nil {
			problems = multierr.Append(problems, err)
			continue
		}
		migrations = append(migrations, Migration{Version: version, Name: m[2], File: name})
	}
	if problems != nil {
		return nil, problems
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func checkAnnotations(name, body string) error {
	up := strings.Index(body, markerUp)
	down := strings.Index(body, markerDown)
	switch {
	case up < 0:
		return fmt.Errorf("%s: missing %q", name, markerUp)
	case down < 0:
		return fmt.Errorf("%s: missing %q", name, markerDown)
	case down < up:
		return fmt.Errorf("%s: %q must precede %q", name, markerUp, markerDown)
	}

	var problems error
	for section, text := range map[string]string{"up": body[up:down], "down": body[down:]} {
		if b, e := strings.Count(text, markerStmtBegin), strings.Count(text, markerStmtEnd); b != e {
			problems = multierr.Append(problems, fmt.Errorf("%s: %s section has %d StatementBegin and %d StatementEnd", name, section, b, e))
		}
	}
	upper := strings.ToUpper(body[up:down])
	for _, table := range appendOnlyTables {
		t := strings.ToUpper(table)
		if strings.Contains(upper, "DROP TABLE IF EXISTS "+t) || strings.Contains(upper, "DROP TABLE "+t) || strings.Contains(upper, "TRUNCATE "+t) {
			problems = multierr.Append(problems, fmt.Errorf("%s: up section removes ledger table %s", name, table))
		}
	}
	return problems
}
