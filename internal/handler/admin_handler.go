package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/studyroom/seat-tracker/internal/dto"
	"github.com/studyroom/seat-tracker/internal/repository"
	"github.com/studyroom/seat-tracker/internal/service"
	"github.com/studyroom/seat-tracker/internal/utils"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type AdminConfig struct {
	Password string
	Secret   string
	TokenTTL time.Duration
}

type AdminHandler struct {
	svc   service.ReservationService
	audit repository.AuditRepository
	cfg   AdminConfig
	now   func() time.Time
}

// NewAdminHandler accepts a nil audit repository; history is then reported
// as unavailable.
func NewAdminHandler(svc service.ReservationService, audit repository.AuditRepository, cfg AdminConfig) *AdminHandler {
	return &AdminHandler{svc: svc, audit: audit, cfg: cfg, now: time.Now}
}

func (h *AdminHandler) RegisterRoutes(g *echo.Group, authMw ...echo.MiddlewareFunc) {
	g.POST("/token", h.IssueToken)

	protected := g.Group("", authMw...)
	protected.GET("/users", h.ListUsers)
	protected.DELETE("/users/:studentId", h.RemoveUser)
	protected.GET("/history", h.History)
}

func (h *AdminHandler) IssueToken(c echo.Context) error {
	if h.cfg.Secret == "" || h.cfg.Password == "" {
		return echo.NewHTTPError(http.StatusNotFound, dto.Result{Code: "NOT_CONFIGURED", Message: "admin tokens are not configured"})
	}
	var req dto.AdminTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Password == "" || !utils.VerifyPassword(h.cfg.Password, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, dto.Result{Code: "UNAUTHORIZED", Message: "invalid admin password"})
	}

	tok, err := utils.NewAdminToken(h.cfg.Secret, h.cfg.TokenTTL, h.now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not issue token").SetInternal(err)
	}
	return c.JSON(http.StatusOK, dto.AdminTokenResponse{Token: tok.Token, ExpiresAt: tok.Exp.UnixMilli()})
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	reservations, err := h.svc.ListActive(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}

	resp := make([]dto.ActiveUserResponse, len(reservations))
	for i := range reservations {
		resp[i] = dto.ToActiveUserResponse(&reservations[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) RemoveUser(c echo.Context) error {
	studentID := c.Param("studentId")
	if err := h.svc.ForceRemove(c.Request().Context(), studentID); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.Result{OK: true, Message: studentID + " 사용자를 삭제했습니다."})
}

func (h *AdminHandler) History(c echo.Context) error {
	if h.audit == nil {
		return echo.NewHTTPError(http.StatusNotFound, dto.Result{Code: "NOT_CONFIGURED", Message: "reservation history requires a relational store"})
	}

	limit := defaultHistoryLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxHistoryLimit)
	}

	events, err := h.audit.Recent(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, dto.Failure(service.ErrStorage)).SetInternal(err)
	}

	resp := make([]dto.HistoryEntryResponse, len(events))
	for i := range events {
		resp[i] = dto.ToHistoryEntryResponse(&events[i])
	}
	return c.JSON(http.StatusOK, resp)
}
