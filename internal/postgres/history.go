package postgres

import (
	"context"
	"fmt"

	"velocirrus/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// History stores refresh cycle summaries
type History struct {
	db *gorm.DB
}

func NewHistory(db *gorm.DB) *History {
	return &History{db: db}
}

// Save upserts summaries in batches
func (h *History) Save(ctx context.Context, rows []*model.RefreshSummaryPG) error {
	if len(rows) == 0 {
		return nil
	}
	err := h.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, 100).Error
	if err != nil {
		return fmt.Errorf("failed to save %d refresh summaries: %w", len(rows), err)
	}
	return nil
}

// Recent returns up to limit summaries, newest first
func (h *History) Recent(ctx context.Context, limit int) ([]model.RefreshSummaryPG, error) {
	var rows []model.RefreshSummaryPG
	err := h.db.WithContext(ctx).
		Order("at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh summaries: %w", err)
	}
	return rows, nil
}
