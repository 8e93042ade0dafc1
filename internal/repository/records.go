package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ListOptions pages through a record table. A zero Limit returns every row.
type ListOptions struct {
	Offset int
	Limit  int
}

// records implements CRUD for one record table; name is used in error messages.
type records[R any] struct {
	db   *gorm.DB
	name string
}

func (r *records[R]) List(ctx context.Context, opts ListOptions) ([]R, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(new(R)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count %ss: %w", r.name, err)
	}

	query := db.Order("id ASC")
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var rows []R
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list %ss: %w", r.name, err)
	}
	return rows, total, nil
}

func (r *records[R]) FindByID(ctx context.Context, id int64) (*R, error) {
	var row R
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *records[R]) Create(ctx context.Context, row *R) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create %s: %w", r.name, err)
	}
	return nil
}

// Update applies column values to the row with the given id and returns the
// stored result. A nil value clears the column.
func (r *records[R]) Update(ctx context.Context, id int64, fields map[string]any) (*R, error) {
	row, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return row, nil
	}
	if err := r.db.WithContext(ctx).Model(row).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("update %s: %w", r.name, err)
	}
	return r.FindByID(ctx, id)
}

func (r *records[R]) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(new(R), id)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", r.name, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
