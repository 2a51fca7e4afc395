package dto

import (
	"github.com/studyroom/seat-tracker/internal/models"
	"github.com/studyroom/seat-tracker/internal/service"
)

// Result is the envelope for login, admin delete and every failure.
type Result struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func Failure(e *service.ReservationError) Result {
	return Result{OK: false, Code: e.Code, Message: e.Message}
}

type SeatCell struct {
	Used  int `json:"used"`
	Total int `json:"total"`
}

// SeatInfoResponse is keyed by floor, then seat type.
type SeatInfoResponse map[string]map[string]SeatCell

func ToSeatInfoResponse(usage []service.SeatUsage) SeatInfoResponse {
	resp := make(SeatInfoResponse)
	for _, u := range usage {
		if resp[u.Floor] == nil {
			resp[u.Floor] = make(map[string]SeatCell)
		}
		resp[u.Floor][u.SeatType] = SeatCell{Used: u.Used, Total: u.Total}
	}
	return resp
}

type TimeRemainingResponse struct {
	OK          bool   `json:"ok"`
	RemainingMs int64  `json:"remainingMs"`
	ExpireAt    int64  `json:"expireAt"`
	Floor       string `json:"floor"`
	SeatType    string `json:"seatType"`
}

func ToTimeRemainingResponse(tr *service.TimeRemaining) TimeRemainingResponse {
	return TimeRemainingResponse{
		OK:          true,
		RemainingMs: tr.Remaining.Milliseconds(),
		ExpireAt:    tr.ExpireAt.UnixMilli(),
		Floor:       tr.Reservation.Floor,
		SeatType:    tr.Reservation.SeatType,
	}
}

// ActiveUserResponse timestamps are milliseconds since epoch.
type ActiveUserResponse struct {
	SessionID string `json:"sessionId"`
	StudentID string `json:"studentId"`
	Floor     string `json:"floor"`
	SeatType  string `json:"seatType"`
	CreatedAt int64  `json:"createdAt"`
}

func ToActiveUserResponse(r *models.Reservation) ActiveUserResponse {
	return ActiveUserResponse{
		SessionID: r.ID,
		StudentID: r.StudentID,
		Floor:     r.Floor,
		SeatType:  r.SeatType,
		CreatedAt: r.CreatedAt.UnixMilli(),
	}
}

type AdminTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type HistoryEntryResponse struct {
	Type       models.ReservationEventType `json:"type"`
	SessionID  string                      `json:"sessionId"`
	StudentID  string                      `json:"studentId"`
	Floor      string                      `json:"floor"`
	SeatType   string                      `json:"seatType"`
	CreatedAt  int64                       `json:"createdAt"`
	OccurredAt int64                       `json:"occurredAt"`
}

func ToHistoryEntryResponse(e *models.ReservationEvent) HistoryEntryResponse {
	return HistoryEntryResponse{
		Type:       e.Type,
		SessionID:  e.SessionID,
		StudentID:  e.StudentID,
		Floor:      e.Floor,
		SeatType:   e.SeatType,
		CreatedAt:  e.CreatedAt.UnixMilli(),
		OccurredAt: e.OccurredAt.UnixMilli(),
	}
}
