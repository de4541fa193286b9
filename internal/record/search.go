package record

import (
	"context"
	"strings"

	"github.com/garnizeh/staffdir/pkg/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Search returns the records whose text fields contain query, comparing
// NFC-normalised, case-folded strings. It scans the cached list linearly; an
// empty query returns every record.
func (s *Store) Search(ctx context.Context, query string) ([]models.Staff, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	needle := fold.String(norm.NFC.String(strings.TrimSpace(query)))
	if needle == "" {
		return all, nil
	}

	out := []models.Staff{}
	for _, rec := range all {
		for _, field := range []string{
			rec.FullName,
			rec.Position,
			rec.SchoolAffiliation,
			rec.MajorSubject,
			rec.TeachingSubjects,
			rec.ContactNumber,
		} {
			if strings.Contains(fold.String(norm.NFC.String(field)), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}
