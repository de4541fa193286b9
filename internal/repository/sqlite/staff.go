package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/garnizeh/staffdir/pkg/models"
)

const staffColumns = `id, full_name, position, school_affiliation, major_subject, teaching_subjects, contact_number, photo_path`

// updatable lists the columns a differential update may assign.
var updatable = map[string]bool{
	"full_name":          true,
	"position":           true,
	"school_affiliation": true,
	"major_subject":      true,
	"teaching_subjects":  true,
	"contact_number":     true,
	"photo_path":         true,
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (*models.Staff, error) {
	var s models.Staff
	var position, school, major, subjects, phone, photo sql.NullString
	if err := row.Scan(&s.ID, &s.FullName, &position, &school, &major, &subjects, &phone, &photo); err != nil {
		return nil, err
	}
	s.Position = position.String
	s.SchoolAffiliation = school.String
	s.MajorSubject = major.String
	s.TeachingSubjects = subjects.String
	s.ContactNumber = phone.String
	s.PhotoPath = photo.String
	return &s, nil
}

func (r *SQLiteRepo) CreateStaff(ctx context.Context, s *models.Staff) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("staff is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO teachers (full_name, position, school_affiliation, major_subject, teaching_subjects, contact_number, photo_path) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.FullName, nullable(s.Position), nullable(s.SchoolAffiliation), nullable(s.MajorSubject),
		nullable(s.TeachingSubjects), nullable(s.ContactNumber), nullable(s.PhotoPath))
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) ListStaff(ctx context.Context) ([]models.Staff, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+staffColumns+` FROM teachers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Staff{}
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) GetStaffByID(ctx context.Context, id int64) (*models.Staff, error) {
	s, err := scanStaff(r.conn.QueryRow(ctx, `SELECT `+staffColumns+` FROM teachers WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return s, nil
}

// UpdateStaffColumns assigns exactly the given columns in one statement.
func (r *SQLiteRepo) UpdateStaffColumns(ctx context.Context, id int64, changes []models.ColumnValue) (bool, error) {
	if len(changes) == 0 {
		return false, fmt.Errorf("no columns to update")
	}

	sets := make([]string, 0, len(changes))
	args := make([]any, 0, len(changes)+1)
	for _, c := range changes {
		if !updatable[c.Column] {
			return false, fmt.Errorf("column %q is not updatable", c.Column)
		}
		sets = append(sets, c.Column+" = ?")
		if c.Value == nil {
			args = append(args, nil)
		} else {
			args = append(args, *c.Value)
		}
	}
	args = append(args, id)

	res, err := r.conn.Exec(ctx, `UPDATE teachers SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *SQLiteRepo) DeleteStaff(ctx context.Context, id int64) (bool, error) {
	res, err := r.conn.Exec(ctx, `DELETE FROM teachers WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
