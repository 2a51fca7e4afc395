package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/studyroom/seat-tracker/internal/catalog"
	"github.com/studyroom/seat-tracker/internal/models"
	"github.com/studyroom/seat-tracker/internal/repository"
	"github.com/studyroom/seat-tracker/internal/sweeper"
	"github.com/studyroom/seat-tracker/internal/utils"
)

type ClaimRequest struct {
	StudentID string
	Password  string
	Floor     string
	SeatType  string
	Agree     bool
}

type SeatUsage struct {
	Floor    string
	SeatType string
	Used     int
	Total    int
}

type TimeRemaining struct {
	Reservation models.Reservation
	Remaining   time.Duration
	ExpireAt    time.Time
}

type ReservationService interface {
	Claim(ctx context.Context, req ClaimRequest) (*models.Reservation, error)
	SeatInfo(ctx context.Context) ([]SeatUsage, error)
	TimeRemaining(ctx context.Context, studentID string) (*TimeRemaining, error)
	ListActive(ctx context.Context) ([]models.Reservation, error)
	ForceRemove(ctx context.Context, studentID string) error
}

// EventPublisher is satisfied by *rabbitmq.Publisher.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

type Options struct {
	// VerifyPassword enables the NO_STUDENT / WRONG_PASSWORD checks on claim.
	VerifyPassword bool
	Now            func() time.Time
	Publisher      EventPublisher
}

type reservationService struct {
	store    repository.ReservationStore
	students repository.StudentRepository
	catalog  *catalog.Catalog
	sweeper  *sweeper.Sweeper
	opts     Options

	// mu makes sweep, checks and the mutation one critical section per call.
	mu sync.Mutex
}

func NewReservationService(
	store repository.ReservationStore,
	students repository.StudentRepository,
	cat *catalog.Catalog,
	sw *sweeper.Sweeper,
	opts Options,
) ReservationService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &reservationService{
		store:    store,
		students: students,
		catalog:  cat,
		sweeper:  sw,
		opts:     opts,
	}
}

// now is truncated to milliseconds, the resolution timestamps are stored at.
func (s *reservationService) now() time.Time {
	return s.opts.Now().UTC().Truncate(time.Millisecond)
}

func (s *reservationService) Claim(ctx context.Context, req ClaimRequest) (*models.Reservation, error) {
	if blank(req.StudentID) || blank(req.Password) || blank(req.Floor) || blank(req.SeatType) {
		return nil, ErrInvalidInput
	}
	if !req.Agree {
		return nil, ErrNoAgree
	}
	if s.opts.VerifyPassword {
		if err := s.authenticate(ctx, req.StudentID, req.Password); err != nil {
			return nil, err
		}
	}

	var events []models.ReservationEvent
	defer func() { s.publish(events) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired, err := s.sweeper.Sweep(ctx, now)
	if err != nil {
		return nil, storageError("sweep", err)
	}
	events = expiredEvents(expired, now)

	if _, err := s.store.FindByStudent(ctx, req.StudentID); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, repository.ErrReservationNotFound) {
		return nil, storageError("find reservation", err)
	}

	total, ok := s.catalog.TotalFor(req.Floor, req.SeatType)
	if !ok {
		return nil, ErrInvalidSeat
	}

	used, err := s.store.CountLive(ctx, req.Floor, req.SeatType)
	if err != nil {
		return nil, storageError("count bucket", err)
	}
	if used >= int64(total) {
		return nil, ErrFull
	}

	reservation := &models.Reservation{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		Floor:     req.Floor,
		SeatType:  req.SeatType,
		CreatedAt: now,
	}
	if err := s.store.InsertWithinCapacity(ctx, reservation, total); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, ErrDuplicate
		case errors.Is(err, repository.ErrBucketFull):
			return nil, ErrFull
		case errors.Is(err, repository.ErrUnknownBucket):
			return nil, ErrInvalidSeat
		default:
			return nil, storageError("insert reservation", err)
		}
	}

	log.Printf("[ReservationService] %s claimed %s/%s (%d/%d)", req.StudentID, req.Floor, req.SeatType, used+1, total)
	events = append(events, models.NewReservationEvent(models.EventClaimed, *reservation, now))
	return reservation, nil
}

func (s *reservationService) authenticate(ctx context.Context, studentID, password string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if errors.Is(err, repository.ErrStudentNotFound) {
		return ErrNoStudent
	}
	if err != nil {
		return storageError("find student", err)
	}
	if !utils.VerifyPassword(student.Password, password) {
		return ErrWrongPassword
	}
	return nil
}

func (s *reservationService) SeatInfo(ctx context.Context) ([]SeatUsage, error) {
	var events []models.ReservationEvent
	defer func() { s.publish(events) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired, err := s.sweeper.Sweep(ctx, now)
	if err != nil {
		return nil, storageError("sweep", err)
	}
	events = expiredEvents(expired, now)

	counts, err := s.store.CountByBucket(ctx)
	if err != nil {
		return nil, storageError("count buckets", err)
	}

	buckets := s.catalog.Buckets()
	usage := make([]SeatUsage, len(buckets))
	for i, b := range buckets {
		usage[i] = SeatUsage{
			Floor:    b.Floor,
			SeatType: b.SeatType,
			Used:     int(counts[b.Key()]),
			Total:    b.Total,
		}
	}
	return usage, nil
}

func (s *reservationService) TimeRemaining(ctx context.Context, studentID string) (*TimeRemaining, error) {
	if blank(studentID) {
		return nil, ErrInvalidInput
	}

	var events []models.ReservationEvent
	defer func() { s.publish(events) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired, err := s.sweeper.Sweep(ctx, now)
	if err != nil {
		return nil, storageError("sweep", err)
	}
	events = expiredEvents(expired, now)

	reservation, err := s.store.FindByStudent(ctx, studentID)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, storageError("find reservation", err)
	}

	ttl := s.sweeper.TTL()
	// the sweep above should have removed it already
	if reservation.ExpiredAt(now, ttl) {
		return nil, ErrExpired
	}
	expireAt := reservation.ExpiresAt(ttl)
	return &TimeRemaining{
		Reservation: *reservation,
		Remaining:   expireAt.Sub(now),
		ExpireAt:    expireAt,
	}, nil
}

func (s *reservationService) ListActive(ctx context.Context) ([]models.Reservation, error) {
	var events []models.ReservationEvent
	defer func() { s.publish(events) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired, err := s.sweeper.Sweep(ctx, now)
	if err != nil {
		return nil, storageError("sweep", err)
	}
	events = expiredEvents(expired, now)

	reservations, err := s.store.ListLive(ctx)
	if err != nil {
		return nil, storageError("list reservations", err)
	}
	return reservations, nil
}

func (s *reservationService) ForceRemove(ctx context.Context, studentID string) error {
	if blank(studentID) {
		return ErrInvalidInput
	}

	var events []models.ReservationEvent
	defer func() { s.publish(events) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired, err := s.sweeper.Sweep(ctx, now)
	if err != nil {
		return storageError("sweep", err)
	}
	events = expiredEvents(expired, now)

	reservation, err := s.store.FindByStudent(ctx, studentID)
	if errors.Is(err, repository.ErrReservationNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storageError("find reservation", err)
	}

	removed, err := s.store.Remove(ctx, studentID)
	if err != nil {
		return storageError("remove reservation", err)
	}
	if !removed {
		return ErrNotFound
	}

	log.Printf("[ReservationService] admin removed %s from %s/%s", studentID, reservation.Floor, reservation.SeatType)
	events = append(events, models.NewReservationEvent(models.EventRemoved, *reservation, now))
	return nil
}

// publish runs after the critical section has been released.
func (s *reservationService) publish(events []models.ReservationEvent) {
	if s.opts.Publisher == nil {
		return
	}
	for _, ev := range events {
		ev.MessageID = uuid.NewString()
		if err := s.opts.Publisher.Publish(string(ev.Type), ev); err != nil {
			log.Printf("[ReservationService] publish %s for %s failed: %v", ev.Type, ev.StudentID, err)
		}
	}
}

func expiredEvents(expired []models.Reservation, now time.Time) []models.ReservationEvent {
	if len(expired) == 0 {
		return nil
	}
	events := make([]models.ReservationEvent, len(expired))
	for i, r := range expired {
		events[i] = models.NewReservationEvent(models.EventExpired, r, now)
	}
	return events
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
