package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/studyroom/seat-tracker/internal/dto"
	"github.com/studyroom/seat-tracker/internal/service"
)

type ReservationHandler struct {
	svc service.ReservationService
}

func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

// RegisterRoutes mounts the public endpoints on g; login may carry extra
// middleware such as a rate limiter.
func (h *ReservationHandler) RegisterRoutes(g *echo.Group, loginMw ...echo.MiddlewareFunc) {
	g.GET("/seatInfo", h.SeatInfo)
	g.POST("/login", h.Login, loginMw...)
	g.GET("/time-remaining", h.TimeRemaining)
}

func (h *ReservationHandler) SeatInfo(c echo.Context) error {
	usage, err := h.svc.SeatInfo(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToSeatInfoResponse(usage))
}

func (h *ReservationHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, dto.Failure(service.ErrInvalidInput))
	}

	_, err := h.svc.Claim(c.Request().Context(), service.ClaimRequest{
		StudentID: string(req.StudentID),
		Password:  req.Password,
		Floor:     req.Floor,
		SeatType:  req.SeatType,
		Agree:     bool(req.Agree),
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.Result{OK: true, Message: "인증 성공!"})
}

func (h *ReservationHandler) TimeRemaining(c echo.Context) error {
	tr, err := h.svc.TimeRemaining(c.Request().Context(), c.QueryParam("studentId"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToTimeRemainingResponse(tr))
}

func toHTTPError(err error) error {
	re := service.AsReservationError(err)
	status := http.StatusInternalServerError
	switch re.Kind {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindAuth:
		status = http.StatusUnauthorized
	case service.KindConflict:
		status = http.StatusConflict
	case service.KindNotFound:
		status = http.StatusNotFound
	}
	he := echo.NewHTTPError(status, dto.Failure(re))
	if re.Kind == service.KindStorage {
		he.Internal = err
	}
	return he
}
