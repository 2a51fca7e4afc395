package models

import "time"

type ReservationEventType string

const (
	EventClaimed ReservationEventType = "reservation.claimed"
	EventRemoved ReservationEventType = "reservation.removed"
	EventExpired ReservationEventType = "reservation.expired"
)

// ReservationEvent is the message published on every lifecycle transition
// and the row the audit consumer stores for it.
type ReservationEvent struct {
	ID         uint                 `gorm:"primaryKey" json:"-"`
	MessageID  string               `gorm:"type:varchar(36);uniqueIndex" json:"messageId"`
	Type       ReservationEventType `gorm:"type:varchar(32);not null" json:"type"`
	SessionID  string               `gorm:"type:varchar(36);not null" json:"sessionId"`
	StudentID  string               `gorm:"type:varchar(64);not null;index" json:"studentId"`
	Floor      string               `gorm:"type:varchar(64);not null" json:"floor"`
	SeatType   string               `gorm:"type:varchar(64);not null" json:"seatType"`
	CreatedAt  time.Time            `gorm:"not null" json:"createdAt"`
	OccurredAt time.Time            `gorm:"not null;index" json:"occurredAt"`
}

func NewReservationEvent(t ReservationEventType, r Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:       t,
		SessionID:  r.ID,
		StudentID:  r.StudentID,
		Floor:      r.Floor,
		SeatType:   r.SeatType,
		CreatedAt:  r.CreatedAt,
		OccurredAt: at,
	}
}
