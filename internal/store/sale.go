// Package store wraps the relational collaborator behind thin per-entity
// adapters. Operations are single round-trips: no caching, no retries;
// failures surface immediately as tagged errors.
package store

import (
	"context"
	"fmt"

	"github.com/sanye891/next-dashboard/internal/models"
	"github.com/sanye891/next-dashboard/internal/util"

	"gorm.io/gorm"
)

// SaleStore performs CRUD against the sales table, scoped by owning user.
type SaleStore struct {
	db   *gorm.DB
	feed *Feed
}

func NewSaleStore(db *gorm.DB, feed *Feed) *SaleStore {
	return &SaleStore{db: db, feed: feed}
}

// List returns all sales of the user ordered by a whitelisted column.
func (s *SaleStore) List(ctx context.Context, userID uint, orderBy string, asc bool) ([]models.Sale, error) {
	if orderBy == "" {
		orderBy = "id"
	}
	if err := util.ValidateOrderBy(orderBy); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	dir := "DESC"
	if asc {
		dir = "ASC"
	}

	var sales []models.Sale
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(orderBy + " " + dir).
		Find(&sales).Error
	if err != nil {
		return nil, mapError(err)
	}
	return sales, nil
}

// Insert creates one sale; the store assigns id and created_at.
func (s *SaleStore) Insert(ctx context.Context, sale *models.Sale) error {
	if err := s.db.WithContext(ctx).Create(sale).Error; err != nil {
		return mapError(err)
	}
	s.feed.Notify(TableSales)
	return nil
}

// InsertBatch creates all rows in a single statement. One batch per commit;
// partial writes are left to the database's transaction semantics.
func (s *SaleStore) InsertBatch(ctx context.Context, sales []models.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&sales).Error; err != nil {
		return mapError(err)
	}
	s.feed.Notify(TableSales)
	return nil
}

// Update patches name and value of the user's sale.
func (s *SaleStore) Update(ctx context.Context, userID, id uint, name string, value float64) error {
	res := s.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"name": name, "value": value})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.feed.Notify(TableSales)
	return nil
}

// Delete removes the user's sale by id.
func (s *SaleStore) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Sale{})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.feed.Notify(TableSales)
	return nil
}
