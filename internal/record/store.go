// Package record implements the staff record store: validated creates,
// cached listing, differential updates and deletes that keep the attachment
// directory in step with the photo_path column.
package record

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/garnizeh/staffdir/internal/cache"
	"github.com/garnizeh/staffdir/pkg/apperror"
	"github.com/garnizeh/staffdir/pkg/models"
	"github.com/garnizeh/staffdir/pkg/repository"
)

// Files is the part of the attachment manager the store relies on.
type Files interface {
	Store(originalName string, data []byte) (string, error)
	Remove(name string) error
	Exists(name string) bool
}

// Upload is a photo supplied with a create or update.
type Upload struct {
	Filename string
	Data     []byte
}

// UpdateResult describes the outcome of Update. NoOp is set when nothing
// differed from the stored row; storage was not touched in that case.
type UpdateResult struct {
	Record   *models.Staff `json:"record"`
	Changed  []string      `json:"changed_fields"`
	NoOp     bool          `json:"no_op"`
	Warnings []string      `json:"warnings,omitempty"`
}

// DeleteResult carries the removed record and any photo cleanup warning.
type DeleteResult struct {
	Record   *models.Staff `json:"record"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Store is the record store. It is safe for use by concurrent handlers but
// provides no isolation between writers of the same record.
type Store struct {
	repo    repository.StaffRepo
	files   Files
	cache   cache.ListCache
	metrics *Metrics
	logger  *slog.Logger

	// fillMu makes the generation check and cache fill in GetAll atomic
	// with respect to invalidate. generation is bumped by every invalidation
	// so a list read that raced with a write is not cached.
	fillMu     sync.Mutex
	generation uint64
}

type Option func(*Store)

// WithCache replaces the default one hour in-memory cache.
func WithCache(c cache.ListCache) Option {
	return func(s *Store) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(repo repository.StaffRepo, files Files, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		files:  files,
		cache:  cache.NewMemory(cache.DefaultTTL),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates in, stores the optional photo and inserts the row.
func (s *Store) Create(ctx context.Context, in models.NewStaff, photo *Upload) (rec *models.Staff, err error) {
	defer func() { s.metrics.observe("create", err) }()

	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := validateUpload(photo); err != nil {
		return nil, err
	}

	row := &models.Staff{
		FullName:          in.FullName,
		Position:          in.Position,
		SchoolAffiliation: in.SchoolAffiliation,
		MajorSubject:      in.MajorSubject,
		TeachingSubjects:  in.TeachingSubjects,
		ContactNumber:     in.ContactNumber,
	}
	if photo != nil {
		name, err := s.files.Store(photo.Filename, photo.Data)
		if err != nil {
			return nil, fmt.Errorf("store photo: %w", err)
		}
		row.PhotoPath = name
	}

	id, err := s.repo.CreateStaff(ctx, row)
	if err != nil {
		s.discard(row.PhotoPath)
		return nil, fmt.Errorf("insert staff: %w", err)
	}
	if err := s.invalidate(ctx); err != nil {
		return nil, err
	}

	created, err := s.repo.GetStaffByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload staff %d: %w", id, err)
	}
	if created == nil {
		row.ID = id
		created = row
	}

	s.logger.Info("record: created", slog.Int64("id", id), slog.Bool("photo", created.HasPhoto()))
	return created, nil
}

// GetAll returns every record in id order, from the cache when it is warm.
func (s *Store) GetAll(ctx context.Context) ([]models.Staff, error) {
	if recs, ok := s.cache.Get(ctx); ok {
		return recs, nil
	}

	s.fillMu.Lock()
	gen := s.generation
	s.fillMu.Unlock()

	recs, err := s.repo.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}

	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if gen == s.generation {
		if err := s.cache.Set(ctx, recs); err != nil {
			s.logger.Warn("record: fill cache", slog.Any("err", err))
		}
	}
	return recs, nil
}

// GetByID returns the record or nil when id does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*models.Staff, error) {
	rec, err := s.repo.GetStaffByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get staff %d: %w", id, err)
	}
	return rec, nil
}

// Update writes only the fields of patch that differ from the stored row.
// A new photo takes priority over clearPhoto. The replaced file is removed
// after the row is written; failing to remove it is reported as a warning.
func (s *Store) Update(ctx context.Context, id int64, patch models.StaffPatch, photo *Upload, clearPhoto bool) (res *UpdateResult, err error) {
	defer func() {
		if err == nil && res != nil && res.NoOp {
			s.metrics.observeResult("update", resultNoop)
			return
		}
		s.metrics.observe("update", err)
	}()

	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	if err := validateUpload(photo); err != nil {
		return nil, err
	}

	cur, err := s.repo.GetStaffByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get staff %d: %w", id, err)
	}
	if cur == nil {
		return nil, apperror.NotFound(id)
	}

	changes := diff(cur, patch)

	var stored, replaced string
	switch {
	case photo != nil:
		name, err := s.files.Store(photo.Filename, photo.Data)
		if err != nil {
			return nil, fmt.Errorf("store photo: %w", err)
		}
		stored, replaced = name, cur.PhotoPath
		changes = append(changes, models.ColumnValue{Column: "photo_path", Value: &name})
	case clearPhoto && cur.HasPhoto():
		replaced = cur.PhotoPath
		changes = append(changes, models.ColumnValue{Column: "photo_path"})
	}

	if len(changes) == 0 {
		return &UpdateResult{Record: cur, NoOp: true}, nil
	}

	ok, err := s.repo.UpdateStaffColumns(ctx, id, changes)
	if err != nil {
		s.discard(stored)
		return nil, fmt.Errorf("update staff %d: %w", id, err)
	}
	if !ok {
		// deleted between the read and the write
		s.discard(stored)
		return nil, apperror.NotFound(id)
	}

	res = &UpdateResult{Changed: columnNames(changes)}
	if replaced != "" {
		if err := s.files.Remove(replaced); err != nil {
			s.logger.Warn("record: remove replaced photo", slog.Int64("id", id), slog.String("photo", replaced), slog.Any("err", err))
			res.Warnings = append(res.Warnings, fmt.Sprintf("old photo %s was not removed: %v", replaced, err))
		}
	}
	if err := s.invalidate(ctx); err != nil {
		return nil, err
	}

	res.Record, err = s.repo.GetStaffByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload staff %d: %w", id, err)
	}

	s.logger.Info("record: updated", slog.Int64("id", id), slog.Any("changed", res.Changed))
	return res, nil
}

// Delete removes the row and then, best effort, its photo file.
func (s *Store) Delete(ctx context.Context, id int64) (res *DeleteResult, err error) {
	defer func() { s.metrics.observe("delete", err) }()

	cur, err := s.repo.GetStaffByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get staff %d: %w", id, err)
	}
	if cur == nil {
		return nil, apperror.NotFound(id)
	}

	ok, err := s.repo.DeleteStaff(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete staff %d: %w", id, err)
	}
	if !ok {
		return nil, apperror.NotFound(id)
	}

	res = &DeleteResult{Record: cur}
	if cur.HasPhoto() {
		if err := s.files.Remove(cur.PhotoPath); err != nil {
			s.logger.Warn("record: remove photo of deleted staff", slog.Int64("id", id), slog.String("photo", cur.PhotoPath), slog.Any("err", err))
			res.Warnings = append(res.Warnings, fmt.Sprintf("photo %s was not removed: %v", cur.PhotoPath, err))
		}
	}
	if err := s.invalidate(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("record: deleted", slog.Int64("id", id))
	return res, nil
}

// PhotoStatus values.
const (
	PhotoNone    = "none"
	PhotoPresent = "present"
	PhotoMissing = "missing"
)

// PhotoStatus reports whether the photo a record references is on disk. A
// missing file is shown to the user, never repaired.
func (s *Store) PhotoStatus(rec *models.Staff) string {
	switch {
	case rec == nil || !rec.HasPhoto():
		return PhotoNone
	case s.files.Exists(rec.PhotoPath):
		return PhotoPresent
	default:
		return PhotoMissing
	}
}

func (s *Store) invalidate(ctx context.Context) error {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	s.generation++
	if err := s.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate staff cache: %w", err)
	}
	return nil
}

// discard removes a file stored for a write that did not happen.
func (s *Store) discard(name string) {
	if name == "" {
		return
	}
	if err := s.files.Remove(name); err != nil {
		s.logger.Warn("record: discard orphaned photo", slog.String("photo", name), slog.Any("err", err))
	}
}
