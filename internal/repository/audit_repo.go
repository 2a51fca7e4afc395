package repository

import (
	"context"

	"github.com/studyroom/seat-tracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuditRepository interface {
	// Record stores an event once; replays of the same message id are ignored.
	Record(ctx context.Context, event *models.ReservationEvent) error
	Recent(ctx context.Context, limit int) ([]models.ReservationEvent, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(ctx context.Context, event *models.ReservationEvent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "message_id"}}, DoNothing: true}).
		Create(event).Error
}

func (r *auditRepository) Recent(ctx context.Context, limit int) ([]models.ReservationEvent, error) {
	var events []models.ReservationEvent
	if err := r.db.WithContext(ctx).Order("occurred_at DESC, id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
