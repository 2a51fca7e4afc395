package catalog

import "github.com/studyroom/seat-tracker/internal/models"

var (
	seedFloors    = []string{"1층", "2층", "3층", "4층", "5층", "6층"}
	seedSeatTypes = []string{"일반석", "노트북석", "스터디룸"}
)

// DefaultBuckets is the reference deployment: 6 floors x 3 seat types.
func DefaultBuckets() []models.SeatBucket {
	totals := map[string]int{"일반석": 40, "노트북석": 20, "스터디룸": 6}
	buckets := make([]models.SeatBucket, 0, len(seedFloors)*len(seedSeatTypes))
	for _, floor := range seedFloors {
		for _, seatType := range seedSeatTypes {
			buckets = append(buckets, models.SeatBucket{Floor: floor, SeatType: seatType, Total: totals[seatType]})
		}
	}
	return buckets
}
