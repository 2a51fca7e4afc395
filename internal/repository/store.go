// Package repository persists seat buckets, credentials and live
// reservations. Two interchangeable backings exist: a JSON data file and a
// relational database through gorm.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/studyroom/seat-tracker/internal/models"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrStudentNotFound     = errors.New("student not found")
	// ErrDuplicateKey is returned when a live reservation already exists for the student.
	ErrDuplicateKey  = errors.New("live reservation already exists for student")
	ErrBucketFull    = errors.New("seat bucket is full")
	ErrUnknownBucket = errors.New("unknown seat bucket")
)

// ReservationStore is the set of live reservations, at most one per student.
// Mutations are durable before they return nil.
type ReservationStore interface {
	ListLive(ctx context.Context) ([]models.Reservation, error)
	FindByStudent(ctx context.Context, studentID string) (*models.Reservation, error)
	CountLive(ctx context.Context, floor, seatType string) (int64, error)
	CountByBucket(ctx context.Context) (map[models.BucketKey]int64, error)
	Insert(ctx context.Context, r *models.Reservation) error
	// InsertWithinCapacity checks uniqueness and capacity and inserts in one
	// atomic step.
	InsertWithinCapacity(ctx context.Context, r *models.Reservation, total int) error
	Remove(ctx context.Context, studentID string) (bool, error)
	// RemoveExpiredBefore deletes every reservation created at or before cutoff
	// and returns the deleted rows.
	RemoveExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
}

type StudentRepository interface {
	FindByID(ctx context.Context, studentID string) (*models.Student, error)
	// SeedStudents inserts credentials for unknown students; existing secrets are kept.
	SeedStudents(ctx context.Context, students []models.Student) error
}

type BucketRepository interface {
	ListBuckets(ctx context.Context) ([]models.SeatBucket, error)
	// SeedBuckets inserts buckets that do not exist yet; existing totals are kept.
	SeedBuckets(ctx context.Context, buckets []models.SeatBucket) error
}
