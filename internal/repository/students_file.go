package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/studyroom/seat-tracker/internal/models"
	"github.com/studyroom/seat-tracker/internal/utils"
)

type studentRecord struct {
	StudentID models.LooseString `json:"studentId"`
	Password  string             `json:"password"`
}

// LoadStudentsFile reads a JSON list of {"studentId", "password"} records.
func LoadStudentsFile(path string) ([]models.Student, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read students file: %w", err)
	}
	var records []studentRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse students file %s: %w", path, err)
	}

	students := make([]models.Student, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		id := strings.TrimSpace(string(rec.StudentID))
		if id == "" || rec.Password == "" {
			return nil, fmt.Errorf("students file %s: entry %d needs studentId and password", path, i)
		}
		if seen[id] {
			return nil, fmt.Errorf("students file %s: duplicate studentId %s", path, id)
		}
		seen[id] = true
		students = append(students, models.Student{StudentID: id, Password: rec.Password})
	}
	return students, nil
}

// ImportStudents adds students the repository does not know yet. Plain
// secrets are bcrypt-hashed with cost before they are stored; known
// students are left untouched so restarts do not re-hash.
func ImportStudents(ctx context.Context, repo StudentRepository, students []models.Student, cost int) (int, error) {
	var fresh []models.Student
	for _, st := range students {
		_, err := repo.FindByID(ctx, st.StudentID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrStudentNotFound) {
			return 0, err
		}
		if !utils.IsHashed(st.Password) {
			hash, err := utils.HashPassword(st.Password, cost)
			if err != nil {
				return 0, fmt.Errorf("hash secret for %s: %w", st.StudentID, err)
			}
			st.Password = hash
		}
		fresh = append(fresh, st)
	}
	if err := repo.SeedStudents(ctx, fresh); err != nil {
		return 0, err
	}
	if len(fresh) > 0 {
		log.Printf("[Students] imported %d of %d students", len(fresh), len(students))
	}
	return len(fresh), nil
}
