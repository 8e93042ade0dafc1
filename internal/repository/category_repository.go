package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskflow/internal/record"
)

// CategoryRepository manages category records.
type CategoryRepository struct {
	records[record.CategoryRecord]
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{records[record.CategoryRecord]{db: db, name: "category"}}
}

// ListOrdered returns every category by display order.
func (r *CategoryRepository) ListOrdered(ctx context.Context) ([]record.CategoryRecord, error) {
	var categories []record.CategoryRecord
	if err := r.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// NextOrder returns the order value for a newly created category.
func (r *CategoryRepository) NextOrder(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&record.CategoryRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return int(count), nil
}
