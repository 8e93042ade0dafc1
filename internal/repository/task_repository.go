package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskflow/internal/record"
)

// TaskRepository handles CRUD for task records.
type TaskRepository struct {
	records[record.TaskRecord]
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{records[record.TaskRecord]{db: db, name: "task"}}
}

// CountByCategory returns the number of non-archived tasks per category id.
func (r *TaskRepository) CountByCategory(ctx context.Context) (map[int64]int, error) {
	var rows []struct {
		CategoryID int64
		Count      int
	}
	err := r.db.WithContext(ctx).Model(&record.TaskRecord{}).
		Select("category_id, COUNT(*) AS count").
		Where("archived = ? AND category_id IS NOT NULL", false).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count tasks by category: %w", err)
	}
	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Count
	}
	return counts, nil
}
