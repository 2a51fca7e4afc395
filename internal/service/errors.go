package service

import (
	"errors"
	"fmt"
	"log"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindStorage    Kind = "storage"
)

// ReservationError is a caller-visible outcome. The package-level values are
// sentinels; compare with errors.Is.
type ReservationError struct {
	Code    string
	Kind    Kind
	Message string
}

func (e *ReservationError) Error() string { return e.Message }

var (
	ErrInvalidInput  = &ReservationError{Code: "INVALID_INPUT", Kind: KindValidation, Message: "모든 값을 입력하세요."}
	ErrNoAgree       = &ReservationError{Code: "NO_AGREE", Kind: KindValidation, Message: "동의해야 인증할 수 있습니다."}
	ErrInvalidSeat   = &ReservationError{Code: "INVALID_SEAT", Kind: KindValidation, Message: "유효하지 않은 층/좌석입니다."}
	ErrNoStudent     = &ReservationError{Code: "NO_STUDENT", Kind: KindAuth, Message: "등록되지 않은 학번입니다."}
	ErrWrongPassword = &ReservationError{Code: "WRONG_PASSWORD", Kind: KindAuth, Message: "비밀번호가 일치하지 않습니다."}
	ErrDuplicate     = &ReservationError{Code: "DUPLICATE", Kind: KindConflict, Message: "이미 인증된 사용자입니다."}
	ErrFull          = &ReservationError{Code: "FULL", Kind: KindConflict, Message: "해당 좌석은 가득 찼습니다."}
	ErrNoSession     = &ReservationError{Code: "NO_SESSION", Kind: KindNotFound, Message: "인증된 좌석이 없습니다."}
	ErrExpired       = &ReservationError{Code: "EXPIRED", Kind: KindNotFound, Message: "좌석 이용 시간이 만료되었습니다."}
	ErrNotFound      = &ReservationError{Code: "NOT_FOUND", Kind: KindNotFound, Message: "해당 사용자를 찾을 수 없습니다."}
	ErrStorage       = &ReservationError{Code: "STORAGE_ERROR", Kind: KindStorage, Message: "서버 오류가 발생했습니다."}
)

// AsReservationError extracts the outcome carried by err. Errors that are not
// outcomes are reported as ErrStorage.
func AsReservationError(err error) *ReservationError {
	var re *ReservationError
	if errors.As(err, &re) {
		return re
	}
	return ErrStorage
}

func storageError(op string, err error) error {
	log.Printf("[ReservationService] %s: %v", op, err)
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
