package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/studyroom/seat-tracker/internal/models"
)

// fileDocument is the on-disk layout:
//
//	{"seats": {floor: {seatType: {"total": n}}},
//	 "users": {studentId: {id, studentId, floor, seatType, time}},
//	 "students": {studentId: {"password": secret}}}
//
// Older files also carry seats[..].used; it is ignored on load because
// capacity usage is always derived from users.
type fileDocument struct {
	Seats    map[string]map[string]fileSeat `json:"seats"`
	Users    map[string]fileUser            `json:"users"`
	Students map[string]fileStudent         `json:"students,omitempty"`
}

type fileSeat struct {
	Total int  `json:"total"`
	Used  *int `json:"used,omitempty"`
}

type fileUser struct {
	ID        string             `json:"id,omitempty"`
	StudentID models.LooseString `json:"studentId"`
	Floor     string             `json:"floor"`
	SeatType  string             `json:"seatType"`
	Time      int64              `json:"time"`
}

type fileStudent struct {
	Password string `json:"password"`
}

// FileStore keeps the whole data file in memory and rewrites it atomically
// on every mutation. It assumes a single process owns the file.
type FileStore struct {
	path string

	mu           sync.RWMutex
	buckets      map[models.BucketKey]int
	reservations map[string]models.Reservation
	students     map[string]string
}

var (
	_ ReservationStore  = (*FileStore)(nil)
	_ StudentRepository = (*FileStore)(nil)
	_ BucketRepository  = (*FileStore)(nil)
)

// OpenFileStore loads path, creating an empty data file when it does not exist.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:         path,
		buckets:      make(map[models.BucketKey]int),
		reservations: make(map[string]models.Reservation),
		students:     make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := s.persist(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse data file %s: %w", path, err)
	}

	for floor, types := range doc.Seats {
		for seatType, seat := range types {
			s.buckets[models.BucketKey{Floor: floor, SeatType: seatType}] = seat.Total
		}
	}
	migrated := false
	for key, u := range doc.Users {
		studentID := string(u.StudentID)
		if studentID == "" {
			studentID = key
		}
		id := u.ID
		if id == "" {
			id = uuid.NewString()
			migrated = true
		}
		s.reservations[studentID] = models.Reservation{
			ID:        id,
			StudentID: studentID,
			Floor:     u.Floor,
			SeatType:  u.SeatType,
			CreatedAt: time.UnixMilli(u.Time).UTC(),
		}
	}
	for id, st := range doc.Students {
		s.students[id] = st.Password
	}

	if migrated {
		log.Printf("[FileStore] assigned session ids to legacy entries in %s", path)
		if err := s.persist(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FileStore) ListLive(_ context.Context) ([]models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

func (s *FileStore) FindByStudent(_ context.Context, studentID string) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[studentID]
	if !ok {
		return nil, ErrReservationNotFound
	}
	return &r, nil
}

func (s *FileStore) CountLive(_ context.Context, floor, seatType string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(models.BucketKey{Floor: floor, SeatType: seatType}), nil
}

func (s *FileStore) countLocked(key models.BucketKey) int64 {
	var n int64
	for _, r := range s.reservations {
		if r.Bucket() == key {
			n++
		}
	}
	return n
}

func (s *FileStore) CountByBucket(_ context.Context) (map[models.BucketKey]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.BucketKey]int64)
	for _, r := range s.reservations {
		counts[r.Bucket()]++
	}
	return counts, nil
}

func (s *FileStore) Insert(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reservations[r.StudentID]; exists {
		return ErrDuplicateKey
	}
	return s.insertLocked(r)
}

func (s *FileStore) InsertWithinCapacity(_ context.Context, r *models.Reservation, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buckets[r.Bucket()]; !ok {
		return ErrUnknownBucket
	}
	if _, exists := s.reservations[r.StudentID]; exists {
		return ErrDuplicateKey
	}
	if s.countLocked(r.Bucket()) >= int64(total) {
		return ErrBucketFull
	}
	return s.insertLocked(r)
}

func (s *FileStore) insertLocked(r *models.Reservation) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.reservations[r.StudentID] = *r
	if err := s.persist(); err != nil {
		delete(s.reservations, r.StudentID)
		return err
	}
	return nil
}

func (s *FileStore) Remove(_ context.Context, studentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reservations[studentID]
	if !ok {
		return false, nil
	}
	delete(s.reservations, studentID)
	if err := s.persist(); err != nil {
		s.reservations[studentID] = r
		return false, err
	}
	return true, nil
}

func (s *FileStore) RemoveExpiredBefore(_ context.Context, cutoff time.Time) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []models.Reservation
	for id, r := range s.reservations {
		if !r.CreatedAt.After(cutoff) {
			expired = append(expired, r)
			delete(s.reservations, id)
		}
	}
	if len(expired) == 0 {
		return nil, nil
	}
	if err := s.persist(); err != nil {
		for _, r := range expired {
			s.reservations[r.StudentID] = r
		}
		return nil, err
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].CreatedAt.Before(expired[j].CreatedAt) })
	return expired, nil
}

func (s *FileStore) FindByID(_ context.Context, studentID string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	password, ok := s.students[studentID]
	if !ok {
		return nil, ErrStudentNotFound
	}
	return &models.Student{StudentID: studentID, Password: password}, nil
}

func (s *FileStore) SeedStudents(_ context.Context, students []models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []string
	for _, st := range students {
		if _, ok := s.students[st.StudentID]; ok {
			continue
		}
		s.students[st.StudentID] = st.Password
		added = append(added, st.StudentID)
	}
	if len(added) == 0 {
		return nil
	}
	if err := s.persist(); err != nil {
		for _, id := range added {
			delete(s.students, id)
		}
		return err
	}
	return nil
}

func (s *FileStore) ListBuckets(_ context.Context) ([]models.SeatBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SeatBucket, 0, len(s.buckets))
	for key, total := range s.buckets {
		out = append(out, models.SeatBucket{Floor: key.Floor, SeatType: key.SeatType, Total: total})
	}
	return out, nil
}

func (s *FileStore) SeedBuckets(_ context.Context, buckets []models.SeatBucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []models.BucketKey
	for _, b := range buckets {
		if _, ok := s.buckets[b.Key()]; ok {
			continue
		}
		s.buckets[b.Key()] = b.Total
		added = append(added, b.Key())
	}
	if len(added) == 0 {
		return nil
	}
	if err := s.persist(); err != nil {
		for _, key := range added {
			delete(s.buckets, key)
		}
		return err
	}
	return nil
}

// persist writes the document to a temp file, fsyncs it and renames it over
// the data file. Callers hold s.mu.
func (s *FileStore) persist() error {
	doc := fileDocument{
		Seats: make(map[string]map[string]fileSeat),
		Users: make(map[string]fileUser, len(s.reservations)),
	}
	for key, total := range s.buckets {
		if doc.Seats[key.Floor] == nil {
			doc.Seats[key.Floor] = make(map[string]fileSeat)
		}
		doc.Seats[key.Floor][key.SeatType] = fileSeat{Total: total}
	}
	for id, r := range s.reservations {
		doc.Users[id] = fileUser{
			ID:        r.ID,
			StudentID: models.LooseString(r.StudentID),
			Floor:     r.Floor,
			SeatType:  r.SeatType,
			Time:      r.CreatedAt.UnixMilli(),
		}
	}
	if len(s.students) > 0 {
		doc.Students = make(map[string]fileStudent, len(s.students))
		for id, pw := range s.students {
			doc.Students[id] = fileStudent{Password: pw}
		}
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal data file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp data file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write data file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close data file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return syncDir(filepath.Dir(s.path))
}

// syncDir makes a completed rename durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open data dir: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync data dir: %w", err)
	}
	return nil
}
