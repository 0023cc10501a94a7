package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lookup-bot/internal/model"
)

// QueryLogRepository stores protected-command invocations.
type QueryLogRepository struct {
	db *gorm.DB
}

func NewQueryLogRepository(db *gorm.DB) *QueryLogRepository {
	return &QueryLogRepository{db: db}
}

func (r *QueryLogRepository) Record(ctx context.Context, entry *model.QueryLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("record query: %w", err)
	}
	return nil
}

// CommandCount is one row of the per-command usage summary.
type CommandCount struct {
	Command string
	Total   int64
}

// CountByCommandSince returns per-command totals for entries newer than since.
func (r *QueryLogRepository) CountByCommandSince(ctx context.Context, since time.Time) ([]CommandCount, error) {
	var counts []CommandCount
	err := r.db.WithContext(ctx).
		Model(&model.QueryLog{}).
		Select("command, count(*) as total").
		Where("created_at >= ?", since).
		Group("command").
		Order("total DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count queries: %w", err)
	}
	return counts, nil
}

// CountCallersSince returns how many distinct callers issued commands since the given time.
func (r *QueryLogRepository) CountCallersSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.QueryLog{}).
		Where("created_at >= ?", since).
		Distinct("user_id").
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("count callers: %w", err)
	}
	return total, nil
}
