// Package store implements the persistent record store for GhostHub.
//
// Three independent collections — classifications, summaries, issues —
// each with insert, filtered query, lookup, partial update, delete, and
// clear. Ids are auto-incrementing integers unique per collection. A
// failure of the underlying database surfaces as fault.ErrStorageUnavailable;
// a failed write is never silently committed.
package store

import (
	"errors"
	"fmt"

	"github.com/ghosthub/ghosthub/internal/fault"
	"github.com/ghosthub/ghosthub/internal/models"
	"gorm.io/gorm"
)

// Filter is an exact-equality AND match over the named record fields.
// Keys are database column names; an empty filter matches every record.
type Filter map[string]interface{}

// Store provides typed access to the three GhostHub collections.
type Store struct {
	db *gorm.DB
}

// New creates a Store over an opened, migrated database.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is required")
	}
	return &Store{db: db}, nil
}

// wrap maps a gorm error to the store taxonomy with an operation prefix.
func wrap(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("store: %s: %w", op, fault.ErrNotFound)
	}
	return fmt.Errorf("store: %s: %w: %v", op, fault.ErrStorageUnavailable, err)
}

func insert[T any](s *Store, op string, rec *T) error {
	if err := s.db.Create(rec).Error; err != nil {
		return wrap(op, err)
	}
	return nil
}

func getByID[T any](s *Store, op string, id uint) (*T, error) {
	var rec T
	if err := s.db.First(&rec, id).Error; err != nil {
		return nil, wrap(fmt.Sprintf("%s %d", op, id), err)
	}
	return &rec, nil
}

// query returns records matching filter, in insertion (id) order.
func query[T any](s *Store, op string, filter Filter) ([]T, error) {
	var recs []T
	q := s.db.Order("id")
	if len(filter) > 0 {
		q = q.Where(map[string]interface{}(filter))
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, wrap(op, err)
	}
	return recs, nil
}

// updateByID merges fields into the record with the given id. The id itself
// is immutable; the caller's map is not modified.
func updateByID[T any](s *Store, op string, id uint, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if k == "id" {
			continue
		}
		updates[k] = v
	}
	var rec T
	res := s.db.Model(&rec).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return wrap(fmt.Sprintf("%s %d", op, id), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store: %s %d: %w", op, id, fault.ErrNotFound)
	}
	return nil
}

func deleteByID[T any](s *Store, op string, id uint) error {
	var rec T
	res := s.db.Delete(&rec, id)
	if res.Error != nil {
		return wrap(fmt.Sprintf("%s %d", op, id), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store: %s %d: %w", op, id, fault.ErrNotFound)
	}
	return nil
}

func clear[T any](s *Store, op string) error {
	var rec T
	if err := s.db.Where("1 = 1").Delete(&rec).Error; err != nil {
		return wrap(op, err)
	}
	return nil
}

// --- classifications ---

// InsertClassification persists a classification and returns its id.
func (s *Store) InsertClassification(c *models.Classification) (uint, error) {
	if err := insert(s, "insert classification", c); err != nil {
		return 0, err
	}
	return c.ID, nil
}

// GetClassification returns the classification with the given id.
func (s *Store) GetClassification(id uint) (*models.Classification, error) {
	return getByID[models.Classification](s, "get classification", id)
}

// QueryClassifications returns classifications matching filter in insertion order.
func (s *Store) QueryClassifications(filter Filter) ([]models.Classification, error) {
	return query[models.Classification](s, "query classifications", filter)
}

// UpdateClassification merges partial fields into a stored classification.
func (s *Store) UpdateClassification(id uint, fields map[string]interface{}) error {
	return updateByID[models.Classification](s, "update classification", id, fields)
}

// DeleteClassification removes the classification with the given id.
func (s *Store) DeleteClassification(id uint) error {
	return deleteByID[models.Classification](s, "delete classification", id)
}

// ClearClassifications removes every classification record.
func (s *Store) ClearClassifications() error {
	return clear[models.Classification](s, "clear classifications")
}

// --- summaries ---

// InsertSummary persists a summary and returns its id.
func (s *Store) InsertSummary(sum *models.Summary) (uint, error) {
	if err := insert(s, "insert summary", sum); err != nil {
		return 0, err
	}
	return sum.ID, nil
}

// GetSummary returns the summary with the given id.
func (s *Store) GetSummary(id uint) (*models.Summary, error) {
	return getByID[models.Summary](s, "get summary", id)
}

// QuerySummaries returns summaries matching filter in insertion order.
func (s *Store) QuerySummaries(filter Filter) ([]models.Summary, error) {
	return query[models.Summary](s, "query summaries", filter)
}

// UpdateSummary merges partial fields into a stored summary.
func (s *Store) UpdateSummary(id uint, fields map[string]interface{}) error {
	return updateByID[models.Summary](s, "update summary", id, fields)
}

// DeleteSummary removes the summary with the given id.
func (s *Store) DeleteSummary(id uint) error {
	return deleteByID[models.Summary](s, "delete summary", id)
}

// ClearSummaries removes every summary record.
func (s *Store) ClearSummaries() error {
	return clear[models.Summary](s, "clear summaries")
}

// --- issue drafts ---

// InsertDraft persists an issue draft and returns its id.
func (s *Store) InsertDraft(d *models.IssueDraft) (uint, error) {
	if err := insert(s, "insert draft", d); err != nil {
		return 0, err
	}
	return d.ID, nil
}

// GetDraft returns the issue draft with the given id.
func (s *Store) GetDraft(id uint) (*models.IssueDraft, error) {
	return getByID[models.IssueDraft](s, "get draft", id)
}

// QueryDrafts returns issue drafts matching filter in insertion order.
func (s *Store) QueryDrafts(filter Filter) ([]models.IssueDraft, error) {
	return query[models.IssueDraft](s, "query drafts", filter)
}

// UpdateDraft merges partial fields into a stored draft. Status changes
// must go through UpdateDraftStatus so the lifecycle guard applies.
func (s *Store) UpdateDraft(id uint, fields map[string]interface{}) error {
	return updateByID[models.IssueDraft](s, "update draft", id, fields)
}

// DeleteDraft removes the issue draft with the given id.
func (s *Store) DeleteDraft(id uint) error {
	return deleteByID[models.IssueDraft](s, "delete draft", id)
}

// ClearDrafts removes every issue draft record.
func (s *Store) ClearDrafts() error {
	return clear[models.IssueDraft](s, "clear drafts")
}

// UpdateDraftStatus transitions a draft to approved or rejected. Only the
// draft status may transition; approved and rejected are terminal. The
// read-check-write runs in one transaction so concurrent writers targeting
// the same id cannot interleave. On fault.ErrInvalidTransition the stored
// record is unchanged.
func (s *Store) UpdateDraftStatus(id uint, status models.DraftStatus) (*models.IssueDraft, error) {
	if !status.Valid() || status == models.StatusDraft {
		return nil, fmt.Errorf("store: update draft %d status to %q: %w", id, status, fault.ErrInvalidTransition)
	}

	var draft models.IssueDraft
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&draft, id).Error; err != nil {
			return err
		}
		if draft.Status != models.StatusDraft {
			return fmt.Errorf("store: draft %d is %s: %w", id, draft.Status, fault.ErrInvalidTransition)
		}
		if err := tx.Model(&draft).Update("status", status).Error; err != nil {
			return err
		}
		draft.Status = status
		return nil
	})
	if err != nil {
		if errors.Is(err, fault.ErrInvalidTransition) {
			return nil, err
		}
		return nil, wrap(fmt.Sprintf("update draft %d status", id), err)
	}
	return &draft, nil
}
