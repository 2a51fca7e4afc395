//go:build integration

package integration

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/studyroom/seat-tracker/config"
	"github.com/studyroom/seat-tracker/pkg/database"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "seat_tracker_test"),
	)

	var err error
	testDB, err = database.Open(config.BackendPostgres, dsn)
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	code := m.Run()

	dropTables()
	os.Exit(code)
}

func dropTables() {
	testDB.Exec("DROP TABLE IF EXISTS reservations")
	testDB.Exec("DROP TABLE IF EXISTS reservation_events")
	testDB.Exec("DROP TABLE IF EXISTS students")
	testDB.Exec("DROP TABLE IF EXISTS seat_buckets")
}

func cleanTables() {
	testDB.Exec("DELETE FROM reservations")
	testDB.Exec("DELETE FROM reservation_events")
	testDB.Exec("DELETE FROM students")
	testDB.Exec("DELETE FROM seat_buckets")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
