// Package catalog holds the fixed (floor, seatType) capacity table.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/studyroom/seat-tracker/internal/models"
)

// Catalog is immutable after New.
type Catalog struct {
	totals  map[models.BucketKey]int
	buckets []models.SeatBucket
}

func New(buckets []models.SeatBucket) (*Catalog, error) {
	c := &Catalog{totals: make(map[models.BucketKey]int, len(buckets))}
	for _, b := range buckets {
		if b.Floor == "" || b.SeatType == "" {
			return nil, fmt.Errorf("catalog: bucket with empty floor or seat type")
		}
		if b.Total < 0 {
			return nil, fmt.Errorf("catalog: negative total for %s/%s", b.Floor, b.SeatType)
		}
		if _, dup := c.totals[b.Key()]; dup {
			return nil, fmt.Errorf("catalog: duplicate bucket %s/%s", b.Floor, b.SeatType)
		}
		c.totals[b.Key()] = b.Total
		c.buckets = append(c.buckets, b)
	}
	sort.Slice(c.buckets, func(i, j int) bool {
		if c.buckets[i].Floor != c.buckets[j].Floor {
			return c.buckets[i].Floor < c.buckets[j].Floor
		}
		return c.buckets[i].SeatType < c.buckets[j].SeatType
	})
	return c, nil
}

// TotalFor returns the capacity of a bucket and whether the bucket exists.
func (c *Catalog) TotalFor(floor, seatType string) (int, bool) {
	total, ok := c.totals[models.BucketKey{Floor: floor, SeatType: seatType}]
	return total, ok
}

// Buckets returns a copy ordered by floor, then seat type.
func (c *Catalog) Buckets() []models.SeatBucket {
	out := make([]models.SeatBucket, len(c.buckets))
	copy(out, c.buckets)
	return out
}

func (c *Catalog) Len() int { return len(c.buckets) }

// LoadFile reads a JSON array of {floor, seatType, total}.
func LoadFile(path string) ([]models.SeatBucket, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var buckets []models.SeatBucket
	if err := json.Unmarshal(raw, &buckets); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	// validate the same way New does so bad files fail at startup
	if _, err := New(buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}
