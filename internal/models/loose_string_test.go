package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooseString_Unmarshal(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"id":"12345678"}`, "12345678"},
		{`{"id":12345678}`, "12345678"},
		{`{"id":20240001.0}`, "20240001"},
		{`{"id":1.5}`, "1.5"},
		{`{"id":"  "}`, "  "},
		{`{"id":null}`, ""},
		{`{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var v struct {
				ID LooseString `json:"id"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.body), &v))
			assert.Equal(t, tt.want, string(v.ID))
		})
	}
}

func TestLooseString_RejectsOtherTypes(t *testing.T) {
	for _, body := range []string{`{"id":true}`, `{"id":{}}`, `{"id":[1]}`} {
		var v struct {
			ID LooseString `json:"id"`
		}
		assert.Error(t, json.Unmarshal([]byte(body), &v), body)
	}
}
