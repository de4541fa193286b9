package models

import "strings"

// Domain models matching the teachers table in db/schema/teachers.sql.
//
// Optional text columns treat NULL and "" as the same value: writes store NULL
// for an empty string and reads return "" for NULL.

type Staff struct {
	ID                int64  `json:"id" db:"id"`
	FullName          string `json:"full_name" db:"full_name"`
	Position          string `json:"position,omitempty" db:"position"`
	SchoolAffiliation string `json:"school_affiliation,omitempty" db:"school_affiliation"`
	MajorSubject      string `json:"major_subject,omitempty" db:"major_subject"`
	TeachingSubjects  string `json:"teaching_subjects,omitempty" db:"teaching_subjects"`
	ContactNumber     string `json:"contact_number,omitempty" db:"contact_number"`
	PhotoPath         string `json:"photo_path,omitempty" db:"photo_path"`
}

// HasPhoto reports whether the record references a stored photo.
func (s *Staff) HasPhoto() bool { return s.PhotoPath != "" }

// TeachingSubjectList splits TeachingSubjects on commas. The convention is not
// enforced on write.
func (s *Staff) TeachingSubjectList() []string {
	var out []string
	for _, p := range strings.Split(s.TeachingSubjects, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewStaff is the input of a create.
type NewStaff struct {
	FullName          string `json:"full_name" validate:"notblank,max=200"`
	Position          string `json:"position,omitempty" validate:"max=200"`
	SchoolAffiliation string `json:"school_affiliation,omitempty" validate:"max=200"`
	MajorSubject      string `json:"major_subject,omitempty" validate:"max=200"`
	TeachingSubjects  string `json:"teaching_subjects,omitempty" validate:"max=1000"`
	ContactNumber     string `json:"contact_number,omitempty" validate:"max=50"`
}

// StaffPatch is the input of a differential update. A nil field was not
// provided and is neither compared nor written; a non-nil field sets the
// column, an empty string clearing an optional one.
type StaffPatch struct {
	FullName          *string `json:"full_name,omitempty" validate:"omitnil,notblank,max=200"`
	Position          *string `json:"position,omitempty" validate:"omitnil,max=200"`
	SchoolAffiliation *string `json:"school_affiliation,omitempty" validate:"omitnil,max=200"`
	MajorSubject      *string `json:"major_subject,omitempty" validate:"omitnil,max=200"`
	TeachingSubjects  *string `json:"teaching_subjects,omitempty" validate:"omitnil,max=1000"`
	ContactNumber     *string `json:"contact_number,omitempty" validate:"omitnil,max=50"`
}

// ColumnValue is one column assignment of a differential update. A nil Value
// writes NULL.
type ColumnValue struct {
	Column string
	Value  *string
}
