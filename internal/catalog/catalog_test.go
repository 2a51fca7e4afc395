package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyroom/seat-tracker/internal/models"
)

func TestDefaultBuckets(t *testing.T) {
	c, err := New(DefaultBuckets())
	require.NoError(t, err)
	assert.Equal(t, 18, c.Len())

	total, ok := c.TotalFor("3층", "일반석")
	assert.True(t, ok)
	assert.Equal(t, 40, total)

	_, ok = c.TotalFor("3층", "없음")
	assert.False(t, ok)
}

func TestNew_RejectsBadBuckets(t *testing.T) {
	_, err := New([]models.SeatBucket{{Floor: "1층", SeatType: "일반석", Total: -1}})
	assert.Error(t, err)

	_, err = New([]models.SeatBucket{
		{Floor: "1층", SeatType: "일반석", Total: 1},
		{Floor: "1층", SeatType: "일반석", Total: 2},
	})
	assert.Error(t, err)

	_, err = New([]models.SeatBucket{{Floor: "", SeatType: "일반석", Total: 1}})
	assert.Error(t, err)
}

func TestBuckets_SortedCopy(t *testing.T) {
	c, err := New([]models.SeatBucket{
		{Floor: "2층", SeatType: "b", Total: 1},
		{Floor: "1층", SeatType: "b", Total: 1},
		{Floor: "1층", SeatType: "a", Total: 1},
	})
	require.NoError(t, err)

	got := c.Buckets()
	assert.Equal(t, "1층", got[0].Floor)
	assert.Equal(t, "a", got[0].SeatType)
	assert.Equal(t, "2층", got[2].Floor)

	got[0].Total = 99
	total, _ := c.TotalFor("1층", "a")
	assert.Equal(t, 1, total)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"floor":"B1","seatType":"open","total":3}]`), 0o644))

	buckets, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, 3, buckets[0].Total)

	require.NoError(t, os.WriteFile(path, []byte(`[{"floor":"B1","seatType":"open","total":-3}]`), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
