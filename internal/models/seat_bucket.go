package models

type BucketKey struct {
	Floor    string
	SeatType string
}

// SeatBucket is a (floor, seatType) capacity unit. Used is never persisted;
// it is always derived from the live reservations.
type SeatBucket struct {
	Floor    string `gorm:"primaryKey;type:varchar(64)" json:"floor"`
	SeatType string `gorm:"primaryKey;type:varchar(64)" json:"seatType"`
	Total    int    `gorm:"not null" json:"total"`
}

func (b SeatBucket) Key() BucketKey {
	return BucketKey{Floor: b.Floor, SeatType: b.SeatType}
}
