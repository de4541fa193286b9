package db

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/garnizeh/staffdir/pkg/apperror"
)

// TeachersTable is the table holding staff records.
const TeachersTable = "teachers"

// Column describes one column of the teachers table. Additive columns can be
// appended to an existing table with ALTER TABLE; the others must exist from
// the first release.
type Column struct {
	Name     string
	Decl     string
	Additive bool
}

// TeacherColumns is the current column set, in table order.
var TeacherColumns = []Column{
	{Name: "id", Decl: "INTEGER PRIMARY KEY AUTOINCREMENT"},
	{Name: "full_name", Decl: "TEXT NOT NULL"},
	{Name: "position", Decl: "TEXT", Additive: true},
	{Name: "school_affiliation", Decl: "TEXT", Additive: true},
	{Name: "major_subject", Decl: "TEXT", Additive: true},
	{Name: "teaching_subjects", Decl: "TEXT", Additive: true},
	{Name: "contact_number", Decl: "TEXT", Additive: true},
	{Name: "photo_path", Decl: "TEXT", Additive: true},
}

// EnsureSchema creates the teachers table when it does not exist and adds any
// column of TeacherColumns that an older table is missing. It returns the names
// of the columns it added. Columns are never dropped or renamed, so the call is
// safe on every start. Every failure wraps apperror.ErrSchema.
func EnsureSchema(ctx context.Context, d *DB, schemaFS fs.FS) ([]string, error) {
	b, err := fs.ReadFile(schemaFS, path.Join("schema", TeachersTable+".sql"))
	if err != nil {
		return nil, fmt.Errorf("%w: read schema: %v", apperror.ErrSchema, err)
	}
	if _, err := d.Exec(ctx, string(b)); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", apperror.ErrSchema, TeachersTable, err)
	}

	existing, err := tableColumns(ctx, d, TeachersTable)
	if err != nil {
		return nil, fmt.Errorf("%w: inspect %s: %v", apperror.ErrSchema, TeachersTable, err)
	}

	var added []string
	for _, c := range TeacherColumns {
		if existing[c.Name] {
			continue
		}
		if !c.Additive {
			return added, fmt.Errorf("%w: table %s lacks required column %s", apperror.ErrSchema, TeachersTable, c.Name)
		}
		stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, TeachersTable, c.Name, c.Decl)
		if _, err := d.Exec(ctx, stmt); err != nil {
			return added, fmt.Errorf("%w: add column %s: %v", apperror.ErrSchema, c.Name, err)
		}
		d.logger.Info("schema: added column", slog.String("table", TeachersTable), slog.String("column", c.Name))
		added = append(added, c.Name)
	}

	return added, nil
}

// InspectSchema checks an existing teachers table without changing it. It
// returns the additive columns EnsureSchema would add, and an error wrapping
// apperror.ErrSchema when the table is absent or lacks a required column.
func InspectSchema(ctx context.Context, d *DB) ([]string, error) {
	existing, err := tableColumns(ctx, d, TeachersTable)
	if err != nil {
		return nil, fmt.Errorf("%w: inspect %s: %v", apperror.ErrSchema, TeachersTable, err)
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("%w: no %s table", apperror.ErrSchema, TeachersTable)
	}

	var missing []string
	for _, c := range TeacherColumns {
		if existing[c.Name] {
			continue
		}
		if !c.Additive {
			return nil, fmt.Errorf("%w: table %s lacks required column %s", apperror.ErrSchema, TeachersTable, c.Name)
		}
		missing = append(missing, c.Name)
	}
	return missing, nil
}

// tableColumns returns the set of column names of table.
func tableColumns(ctx context.Context, d *DB, table string) (map[string]bool, error) {
	rows, err := d.QueryRows(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
