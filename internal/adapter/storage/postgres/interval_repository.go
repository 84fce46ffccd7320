package postgres

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/utility-advisor/internal/domain"
	"github.com/seu-repo/utility-advisor/internal/ports"
)

// IntervalReading is one stored raw sample. Seq preserves feed order so that
// duplicate timestamps resolve the same way as an inline payload.
type IntervalReading struct {
	ID        uint     `gorm:"primaryKey"`
	Ref       string   `gorm:"index:idx_interval_ref_seq,priority:1;not null"`
	Seq       int      `gorm:"index:idx_interval_ref_seq,priority:2;not null"`
	Timestamp string   `gorm:"not null"`
	KW        *float64 `gorm:"column:kw"`
}

func (IntervalReading) TableName() string {
	return "interval_readings"
}

type IntervalRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewIntervalRepository(db *gorm.DB, log *zap.Logger) ports.IntervalRepository {
	return &IntervalRepository{
		db:  db,
		log: log,
	}
}

// SaveReadings replaces every reading stored under ref
func (r *IntervalRepository) SaveReadings(ctx context.Context, ref string, points []domain.RawIntervalPoint) error {
	rows := make([]IntervalReading, len(points))
	for i, p := range points {
		rows[i] = IntervalReading{Ref: ref, Seq: i, Timestamp: p.Timestamp, KW: p.KW}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ref = ?", ref).Delete(&IntervalReading{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		r.log.Error("Failed to save interval readings", zap.String("ref", ref), zap.Error(err))
		return err
	}
	return nil
}

// LoadInterval returns readings in feed order, or domain.ErrNoIntervalData when none exist
func (r *IntervalRepository) LoadInterval(ctx context.Context, ref string) ([]domain.RawIntervalPoint, error) {
	var rows []IntervalReading
	result := r.db.WithContext(ctx).Where("ref = ?", ref).Order("seq").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(rows) == 0 {
		return nil, domain.ErrNoIntervalData
	}

	points := make([]domain.RawIntervalPoint, len(rows))
	for i, row := range rows {
		points[i] = domain.RawIntervalPoint{Timestamp: row.Timestamp, KW: row.KW}
	}
	return points, nil
}
