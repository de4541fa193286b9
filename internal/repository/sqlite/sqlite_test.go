package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	dbfs "github.com/garnizeh/staffdir/db"
	dbpkg "github.com/garnizeh/staffdir/internal/db"
	sqlite "github.com/garnizeh/staffdir/internal/repository/sqlite"
	"github.com/garnizeh/staffdir/pkg/models"
)

func setupRepo(t *testing.T) (*sqlite.SQLiteRepo, *dbpkg.DB, func()) {
	t.Helper()
	ctx := context.Background()
	d, err := dbpkg.New(ctx, filepath.Join(t.TempDir(), "staff.db"), nil)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}

	if _, err := dbpkg.EnsureSchema(ctx, d, dbfs.Schema); err != nil {
		d.Close()
		t.Fatalf("failed to ensure schema: %v", err)
	}

	repo := sqlite.New(d, nil)
	return repo, d, func() { d.Close() }
}

func strp(s string) *string { return &s }

func TestStaffCRUD(t *testing.T) {
	repo, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := repo.CreateStaff(ctx, nil); err == nil {
		t.Fatalf("expected error when creating nil staff")
	}

	got, err := repo.GetStaffByID(ctx, 9999)
	if err != nil {
		t.Fatalf("expected no error when getting non-existing ID")
	}
	if got != nil {
		t.Fatalf("expected nil when getting non-existing ID got: %#v", got)
	}

	s := &models.Staff{FullName: "Somchai", SchoolAffiliation: "Wat Thai School", TeachingSubjects: "Math, Physics"}
	id, err := repo.CreateStaff(ctx, s)
	if err != nil {
		t.Fatalf("CreateStaff error: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected first id 1, got %d", id)
	}

	got, err = repo.GetStaffByID(ctx, id)
	if err != nil {
		t.Fatalf("GetStaffByID error: %v", err)
	}
	if got == nil || got.FullName != "Somchai" || got.SchoolAffiliation != "Wat Thai School" || got.PhotoPath != "" {
		t.Fatalf("GetStaffByID wrong result: %#v", got)
	}

	list, err := repo.ListStaff(ctx)
	if err != nil {
		t.Fatalf("ListStaff error: %v", err)
	}
	if len(list) != 1 || list[0].ID != id {
		t.Fatalf("ListStaff wrong result: %#v", list)
	}

	ok, err := repo.DeleteStaff(ctx, id)
	if err != nil || !ok {
		t.Fatalf("DeleteStaff: ok=%v err=%v", ok, err)
	}
	ok, err = repo.DeleteStaff(ctx, id)
	if err != nil || ok {
		t.Fatalf("second DeleteStaff: ok=%v err=%v", ok, err)
	}

	after, err := repo.GetStaffByID(ctx, id)
	if err != nil {
		t.Fatalf("GetStaffByID after delete error: %v", err)
	}
	if after != nil {
		t.Fatalf("expected nil after delete got: %#v", after)
	}
}

func TestCreateStaff_EmptyOptionalStoredAsNull(t *testing.T) {
	repo, d, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.CreateStaff(ctx, &models.Staff{FullName: "Malee"})
	if err != nil {
		t.Fatalf("CreateStaff error: %v", err)
	}

	var position, photo sql.NullString
	if err := d.QueryRow(ctx, `SELECT position, photo_path FROM teachers WHERE id = ?`, id).Scan(&position, &photo); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if position.Valid || photo.Valid {
		t.Fatalf("expected NULL columns, got position=%v photo=%v", position, photo)
	}
}

func TestIDsAreNotReused(t *testing.T) {
	repo, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	first, err := repo.CreateStaff(ctx, &models.Staff{FullName: "A"})
	if err != nil {
		t.Fatalf("CreateStaff error: %v", err)
	}
	if _, err := repo.DeleteStaff(ctx, first); err != nil {
		t.Fatalf("DeleteStaff error: %v", err)
	}
	second, err := repo.CreateStaff(ctx, &models.Staff{FullName: "B"})
	if err != nil {
		t.Fatalf("CreateStaff error: %v", err)
	}
	if second <= first {
		t.Fatalf("id reused: first=%d second=%d", first, second)
	}
}

func TestUpdateStaffColumns_TouchesOnlyGivenColumns(t *testing.T) {
	repo, d, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.CreateStaff(ctx, &models.Staff{FullName: "Somchai", MajorSubject: "Science", PhotoPath: "p_ab.png"})
	if err != nil {
		t.Fatalf("CreateStaff error: %v", err)
	}

	ok, err := repo.UpdateStaffColumns(ctx, id, []models.ColumnValue{{Column: "contact_number", Value: strp("0891234567")}})
	if err != nil || !ok {
		t.Fatalf("UpdateStaffColumns: ok=%v err=%v", ok, err)
	}

	var name, major, phone, photo string
	row := d.QueryRow(ctx, `SELECT full_name, major_subject, contact_number, photo_path FROM teachers WHERE id = ?`, id)
	if err := row.Scan(&name, &major, &phone, &photo); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if name != "Somchai" || major != "Science" || phone != "0891234567" || photo != "p_ab.png" {
		t.Fatalf("unexpected row: %q %q %q %q", name, major, phone, photo)
	}

	// nil value clears the column
	if _, err := repo.UpdateStaffColumns(ctx, id, []models.ColumnValue{{Column: "photo_path"}}); err != nil {
		t.Fatalf("clear photo_path: %v", err)
	}
	var cleared sql.NullString
	if err := d.QueryRow(ctx, `SELECT photo_path FROM teachers WHERE id = ?`, id).Scan(&cleared); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if cleared.Valid {
		t.Fatalf("expected NULL photo_path, got %q", cleared.String)
	}
}

func TestUpdateStaffColumns_Rejects(t *testing.T) {
	repo, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := repo.UpdateStaffColumns(ctx, 1, nil); err == nil {
		t.Fatalf("expected error for empty change set")
	}
	if _, err := repo.UpdateStaffColumns(ctx, 1, []models.ColumnValue{{Column: "id", Value: strp("2")}}); err == nil {
		t.Fatalf("expected error for non-updatable column")
	}

	ok, err := repo.UpdateStaffColumns(ctx, 424242, []models.ColumnValue{{Column: "position", Value: strp("x")}})
	if err != nil {
		t.Fatalf("UpdateStaffColumns missing id: %v", err)
	}
	if ok {
		t.Fatalf("expected no row affected for missing id")
	}
}
