package store

import (
	"context"

	"github.com/sanye891/next-dashboard/internal/models"

	"gorm.io/gorm"
)

// FileStore keeps the metadata rows that accompany blobs in object storage.
type FileStore struct {
	db   *gorm.DB
	feed *Feed
}

func NewFileStore(db *gorm.DB, feed *Feed) *FileStore {
	return &FileStore{db: db, feed: feed}
}

// List returns the user's file records, newest first.
func (s *FileStore) List(ctx context.Context, userID uint) ([]models.FileRecord, error) {
	var files []models.FileRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, mapError(err)
	}
	return files, nil
}

// Get fetches one record owned by the user.
func (s *FileStore) Get(ctx context.Context, userID, id uint) (*models.FileRecord, error) {
	var rec models.FileRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&rec).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &rec, nil
}

// Insert writes the metadata row. Callers run this as phase two of the
// upload saga and must delete the blob again when it fails.
func (s *FileStore) Insert(ctx context.Context, rec *models.FileRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return mapError(err)
	}
	s.feed.Notify(TableFiles)
	return nil
}

// UpdateCategory moves the record to another category. Callers validate the
// category against the closed set before calling.
func (s *FileStore) UpdateCategory(ctx context.Context, userID, id uint, category string) error {
	res := s.db.WithContext(ctx).
		Model(&models.FileRecord{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("category", category)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.feed.Notify(TableFiles)
	return nil
}

// Delete removes the metadata row by id.
func (s *FileStore) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.FileRecord{})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.feed.Notify(TableFiles)
	return nil
}
