package record

import "github.com/garnizeh/staffdir/pkg/models"

// diff returns the assignments for the provided patch fields whose value
// differs from cur. Empty optional values are written as NULL.
func diff(cur *models.Staff, p models.StaffPatch) []models.ColumnValue {
	fields := []struct {
		column   string
		next     *string
		current  string
		optional bool
	}{
		{"full_name", p.FullName, cur.FullName, false},
		{"position", p.Position, cur.Position, true},
		{"school_affiliation", p.SchoolAffiliation, cur.SchoolAffiliation, true},
		{"major_subject", p.MajorSubject, cur.MajorSubject, true},
		{"teaching_subjects", p.TeachingSubjects, cur.TeachingSubjects, true},
		{"contact_number", p.ContactNumber, cur.ContactNumber, true},
	}

	var out []models.ColumnValue
	for _, f := range fields {
		if f.next == nil || *f.next == f.current {
			continue
		}
		v := *f.next
		cv := models.ColumnValue{Column: f.column, Value: &v}
		if f.optional && v == "" {
			cv.Value = nil
		}
		out = append(out, cv)
	}
	return out
}

func columnNames(changes []models.ColumnValue) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Column
	}
	return out
}
