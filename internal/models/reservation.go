package models

import "time"

// Reservation is one student's live seat claim. Rows are never updated:
// they are inserted on claim and deleted on expiry or admin removal.
type Reservation struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StudentID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_reservation_student" json:"studentId"`
	Floor     string    `gorm:"type:varchar(64);not null;index:idx_reservation_bucket" json:"floor"`
	SeatType  string    `gorm:"type:varchar(64);not null;index:idx_reservation_bucket" json:"seatType"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

func (r Reservation) Bucket() BucketKey {
	return BucketKey{Floor: r.Floor, SeatType: r.SeatType}
}

// ExpiresAt is the first instant at which the reservation is no longer live.
func (r Reservation) ExpiresAt(ttl time.Duration) time.Time {
	return r.CreatedAt.Add(ttl)
}

func (r Reservation) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return !now.Before(r.ExpiresAt(ttl))
}
