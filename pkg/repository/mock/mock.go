package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/garnizeh/staffdir/pkg/models"
)

// StaffRepo is an in-memory repository.StaffRepo that records how often each
// method ran. Set the *Err fields to force failures.
type StaffRepo struct {
	mu     sync.Mutex
	rows   map[int64]models.Staff
	nextID int64

	CreateErr error
	ListErr   error
	UpdateErr error
	DeleteErr error

	CreateCalls int
	ListCalls   int
	UpdateCalls int
	DeleteCalls int

	// LastUpdate holds the columns of the most recent UpdateStaffColumns call.
	LastUpdate []models.ColumnValue
}

func NewStaffRepo() *StaffRepo {
	return &StaffRepo{rows: make(map[int64]models.Staff)}
}

func (m *StaffRepo) CreateStaff(ctx context.Context, s *models.Staff) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.nextID++
	row := *s
	row.ID = m.nextID
	m.rows[row.ID] = row
	return row.ID, nil
}

func (m *StaffRepo) ListStaff(ctx context.Context) ([]models.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]models.Staff, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *StaffRepo) GetStaffByID(ctx context.Context, id int64) (*models.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *StaffRepo) UpdateStaffColumns(ctx context.Context, id int64, changes []models.ColumnValue) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	m.LastUpdate = changes
	if m.UpdateErr != nil {
		return false, m.UpdateErr
	}
	r, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	for _, c := range changes {
		v := ""
		if c.Value != nil {
			v = *c.Value
		}
		switch c.Column {
		case "full_name":
			r.FullName = v
		case "position":
			r.Position = v
		case "school_affiliation":
			r.SchoolAffiliation = v
		case "major_subject":
			r.MajorSubject = v
		case "teaching_subjects":
			r.TeachingSubjects = v
		case "contact_number":
			r.ContactNumber = v
		case "photo_path":
			r.PhotoPath = v
		}
	}
	m.rows[id] = r
	return true, nil
}

func (m *StaffRepo) DeleteStaff(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteErr != nil {
		return false, m.DeleteErr
	}
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}
