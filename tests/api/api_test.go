//go:build api

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The server under test must run with VERIFY_PASSWORD=false; admin calls use
// ADMIN_PASSWORD when admin tokens are configured.
var (
	baseURL       = getEnv("SEAT_TRACKER_URL", "http://localhost:3000")
	adminPassword = os.Getenv("ADMIN_PASSWORD")
)

func TestAPI_FullFlow(t *testing.T) {
	waitForService(t)

	studentID := fmt.Sprintf("api-%d", time.Now().UnixNano())
	floor, seatType := pickBucketWithRoom(t)
	token := adminToken(t)

	t.Run("Step1_RejectWithoutAgree", func(t *testing.T) {
		resp := post(t, baseURL+"/api/login", map[string]any{
			"studentId": studentID, "password": "x", "floor": floor, "seatType": seatType, "agree": false,
		})
		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "NO_AGREE", body["code"])
	})

	t.Run("Step2_Claim", func(t *testing.T) {
		resp := post(t, baseURL+"/api/login", map[string]any{
			"studentId": studentID, "password": "x", "floor": floor, "seatType": seatType, "agree": true,
		})
		var body map[string]any
		decodeJSON(t, resp, &body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["ok"])
	})

	t.Run("Step3_DuplicateClaim", func(t *testing.T) {
		resp := post(t, baseURL+"/api/login", map[string]any{
			"studentId": studentID, "password": "x", "floor": floor, "seatType": seatType, "agree": true,
		})
		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "DUPLICATE", body["code"])
	})

	t.Run("Step4_TimeRemaining", func(t *testing.T) {
		resp := get(t, baseURL+"/api/time-remaining?studentId="+studentID)
		var body map[string]any
		decodeJSON(t, resp, &body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, floor, body["floor"])
		assert.Equal(t, seatType, body["seatType"])
		assert.Greater(t, body["remainingMs"], float64(0))
	})

	t.Run("Step5_AdminListsUser", func(t *testing.T) {
		resp := doWithToken(t, http.MethodGet, baseURL+"/api/admin/users", token)
		var users []map[string]any
		decodeJSON(t, resp, &users)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		found := false
		for _, u := range users {
			if u["studentId"] == studentID {
				found = true
			}
		}
		assert.True(t, found, "claimed student should be listed")
	})

	t.Run("Step6_AdminRemovesUser", func(t *testing.T) {
		resp := doWithToken(t, http.MethodDelete, baseURL+"/api/admin/users/"+studentID, token)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doWithToken(t, http.MethodDelete, baseURL+"/api/admin/users/"+studentID, token)
		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", body["code"])
	})

	t.Run("Step7_NoSessionAfterRemoval", func(t *testing.T) {
		resp := get(t, baseURL+"/api/time-remaining?studentId="+studentID)
		var body map[string]any
		decodeJSON(t, resp, &body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NO_SESSION", body["code"])
	})
}

func pickBucketWithRoom(t *testing.T) (string, string) {
	t.Helper()
	resp := get(t, baseURL+"/api/seatInfo")
	var info map[string]map[string]struct {
		Used  int `json:"used"`
		Total int `json:"total"`
	}
	decodeJSON(t, resp, &info)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for floor, types := range info {
		for seatType, cell := range types {
			if cell.Used < cell.Total {
				return floor, seatType
			}
		}
	}
	t.Fatal("no seat bucket has a free seat")
	return "", ""
}

// adminToken returns "" when the server leaves admin routes open.
func adminToken(t *testing.T) string {
	t.Helper()
	resp := post(t, baseURL+"/api/admin/token", map[string]any{"password": adminPassword})
	var body map[string]any
	decodeJSON(t, resp, &body)
	if resp.StatusCode == http.StatusNotFound {
		return ""
	}
	require.Equal(t, http.StatusOK, resp.StatusCode, "set ADMIN_PASSWORD to the server's admin password")
	return body["token"].(string)
}

func waitForService(t *testing.T) {
	t.Log("waiting for seat tracker to be ready...")
	for i := 0; i < 30; i++ {
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(1 * time.Second)
	}
	t.Fatal("seat tracker did not become ready in time")
}

func get(t *testing.T, url string) *http.Response {
	resp, err := http.Get(url)
	require.NoError(t, err)
	return resp
}

func post(t *testing.T, url string, body any) *http.Response {
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonBody))
	require.NoError(t, err)
	return resp
}

func doWithToken(t *testing.T, method, url, token string) *http.Response {
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target any) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(target)
	if err != nil && resp.StatusCode >= 400 {
		return
	}
	require.NoError(t, err)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
