package repository

import (
	"context"
	"errors"

	"github.com/studyroom/seat-tracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormBucketRepository struct {
	db *gorm.DB
}

func NewGormBucketRepository(db *gorm.DB) BucketRepository {
	return &gormBucketRepository{db: db}
}

func (r *gormBucketRepository) ListBuckets(ctx context.Context) ([]models.SeatBucket, error) {
	var buckets []models.SeatBucket
	if err := r.db.WithContext(ctx).Order("floor ASC, seat_type ASC").Find(&buckets).Error; err != nil {
		return nil, err
	}
	return buckets, nil
}

func (r *gormBucketRepository) SeedBuckets(ctx context.Context, buckets []models.SeatBucket) error {
	if len(buckets) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&buckets).Error
}

type gormStudentRepository struct {
	db *gorm.DB
}

func NewGormStudentRepository(db *gorm.DB) StudentRepository {
	return &gormStudentRepository{db: db}
}

func (r *gormStudentRepository) FindByID(ctx context.Context, studentID string) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *gormStudentRepository) SeedStudents(ctx context.Context, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&students).Error
}
