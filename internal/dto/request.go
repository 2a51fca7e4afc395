package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/studyroom/seat-tracker/internal/models"
)

type LoginRequest struct {
	StudentID models.LooseString `json:"studentId"`
	Password  string             `json:"password"`
	Floor     string             `json:"floor"`
	SeatType  string             `json:"seatType"`
	Agree     Flag               `json:"agree"`
}

type AdminTokenRequest struct {
	Password string `json:"password"`
}

// Flag accepts the loose values browsers send for a consent checkbox:
// true/false, "on", "true", "1", 1, "" or null.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = false
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "false", "0", "off", "no":
			*f = false
		default:
			*f = true
		}
	case bytes.Equal(b, []byte("true")), bytes.Equal(b, []byte("false")):
		*f = Flag(b[0] == 't')
	default:
		n, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return err
		}
		*f = n != 0
	}
	return nil
}
