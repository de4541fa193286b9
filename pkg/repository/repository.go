package repository

import (
	"context"

	"github.com/garnizeh/staffdir/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

// StaffRepo persists staff records. Lookups of a missing id return nil, nil.
// UpdateStaffColumns and DeleteStaff report whether a row was affected.
type StaffRepo interface {
	CreateStaff(ctx context.Context, s *models.Staff) (int64, error)
	ListStaff(ctx context.Context) ([]models.Staff, error)
	GetStaffByID(ctx context.Context, id int64) (*models.Staff, error)
	UpdateStaffColumns(ctx context.Context, id int64, changes []models.ColumnValue) (bool, error)
	DeleteStaff(ctx context.Context, id int64) (bool, error)
}
