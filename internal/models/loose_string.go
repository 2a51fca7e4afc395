package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// LooseString accepts a JSON string or number. Student ids arrive both ways
// from older clients and data files; numbers keep their decimal digits.
type LooseString string

func (s *LooseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = LooseString(v)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", b)
		}
		if i, err := n.Int64(); err == nil {
			*s = LooseString(strconv.FormatInt(i, 10))
			return nil
		}
		f, err := n.Float64()
		if err != nil {
			return err
		}
		*s = LooseString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return nil
}
