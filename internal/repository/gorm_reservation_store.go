package repository

import (
	"context"
	"errors"
	"time"

	"github.com/studyroom/seat-tracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormReservationStore struct {
	db *gorm.DB
}

// NewGormReservationStore expects a *gorm.DB opened with TranslateError so
// unique violations surface as gorm.ErrDuplicatedKey.
func NewGormReservationStore(db *gorm.DB) ReservationStore {
	return &gormReservationStore{db: db}
}

func (r *gormReservationStore) ListLive(ctx context.Context) ([]models.Reservation, error) {
	var reservations []models.Reservation
	if err := r.db.WithContext(ctx).Order("created_at ASC, student_id ASC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *gormReservationStore) FindByStudent(ctx context.Context, studentID string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&reservation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *gormReservationStore) CountLive(ctx context.Context, floor, seatType string) (int64, error) {
	return countBucket(ctx, r.db, floor, seatType)
}

func countBucket(ctx context.Context, tx *gorm.DB, floor, seatType string) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("floor = ? AND seat_type = ?", floor, seatType).
		Count(&count).Error
	return count, err
}

func (r *gormReservationStore) CountByBucket(ctx context.Context) (map[models.BucketKey]int64, error) {
	var rows []struct {
		Floor    string
		SeatType string
		Used     int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Select("floor, seat_type, COUNT(*) AS used").
		Group("floor, seat_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.BucketKey]int64, len(rows))
	for _, row := range rows {
		counts[models.BucketKey{Floor: row.Floor, SeatType: row.SeatType}] = row.Used
	}
	return counts, nil
}

func (r *gormReservationStore) Insert(ctx context.Context, reservation *models.Reservation) error {
	return translateInsert(r.db.WithContext(ctx).Create(reservation).Error)
}

func (r *gormReservationStore) InsertWithinCapacity(ctx context.Context, reservation *models.Reservation, total int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the bucket row: serializes concurrent claims for the same bucket
		// across processes, not only inside this one.
		var bucket models.SeatBucket
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("floor = ? AND seat_type = ?", reservation.Floor, reservation.SeatType).
			First(&bucket).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownBucket
		}
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Reservation{}).Where("student_id = ?", reservation.StudentID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateKey
		}

		used, err := countBucket(ctx, tx, reservation.Floor, reservation.SeatType)
		if err != nil {
			return err
		}
		if used >= int64(total) {
			return ErrBucketFull
		}

		// the unique index still catches a concurrent claim by the same student in another bucket
		return translateInsert(tx.Create(reservation).Error)
	})
}

func (r *gormReservationStore) Remove(ctx context.Context, studentID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("student_id = ?", studentID).Delete(&models.Reservation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RemoveExpiredBefore selects the expired rows under a row lock and deletes
// exactly those, so rows inserted meanwhile are never touched.
func (r *gormReservationStore) RemoveExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	var expired []models.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("created_at <= ?", cutoff).
			Order("created_at ASC").
			Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}
		ids := make([]string, len(expired))
		for i, e := range expired {
			ids[i] = e.ID
		}
		return tx.Where("id IN ?", ids).Delete(&models.Reservation{}).Error
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func translateInsert(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}
