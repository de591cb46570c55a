package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/yakoovad/committee-engine/internal/auth"
	"github.com/yakoovad/committee-engine/internal/model"
	"github.com/yakoovad/committee-engine/internal/service"
	"github.com/yakoovad/committee-engine/pkg/logger"
	"go.uber.org/zap"
)

type Handler struct {
	committees  *service.CommitteeService
	enrollment  *service.EnrollmentService
	settlements *service.SettlementService

	tokens        *auth.Tokens
	healthChecker HealthChecker

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger, tokens *auth.Tokens) *Handler {
	return &Handler{
		logger: logger,
		tokens: tokens,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithCommitteeService(s *service.CommitteeService) *Handler {
	h.committees = s
	return h
}

func (h *Handler) WithEnrollmentService(s *service.EnrollmentService) *Handler {
	h.enrollment = s
	return h
}

func (h *Handler) WithSettlementService(s *service.SettlementService) *Handler {
	h.settlements = s
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if h.healthChecker != nil {
		e.GET("/health", h.healthChecker.HealthCheck())
	}

	userSecurity := e.Group("", AuthMiddleware(h.tokens, model.RoleUser, model.RoleAdmin))

	userSecurity.GET("/committees", h.ListCommittees)
	userSecurity.GET("/committees/:id/analysis", h.GetCommitteeAnalysis)
	userSecurity.GET("/committees/:id/members", h.GetCommitteeMembers)
	userSecurity.GET("/committees/:id/draws", h.GetCommitteeDraws)
	userSecurity.GET("/committees/:id/draws/:drawId/payments", h.GetUserWiseDrawPaidAmount)

	adminSecurity := e.Group("", AuthMiddleware(h.tokens, model.RoleAdmin))

	adminSecurity.POST("/committees", h.CreateCommittee)
	adminSecurity.POST("/committees/:id/members", h.AddMember)
	adminSecurity.POST("/draws/payment", h.RecordPayment)
	adminSecurity.POST("/draws/amount", h.UpdateDrawAmount)
	adminSecurity.POST("/draws/complete", h.CompleteDraw)
}

func (h *Handler) ListCommittees(e echo.Context) error {
	caller := PrincipalFromContext(e)

	committees, err := h.committees.ListCommittees(e.Request().Context(), caller)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, committees)
}

func (h *Handler) GetCommitteeAnalysis(e echo.Context) error {
	committeeID, err := pathID(e, "id")
	if err != nil {
		return h.transportError(e, err)
	}

	analysis, err := h.committees.GetCommitteeAnalysis(e.Request().Context(), PrincipalFromContext(e), committeeID)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, analysis)
}

func (h *Handler) GetCommitteeMembers(e echo.Context) error {
	committeeID, err := pathID(e, "id")
	if err != nil {
		return h.transportError(e, err)
	}

	members, err := h.committees.GetCommitteeMembers(e.Request().Context(), committeeID)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, members)
}

func (h *Handler) GetCommitteeDraws(e echo.Context) error {
	committeeID, err := pathID(e, "id")
	if err != nil {
		return h.transportError(e, err)
	}

	draws, err := h.committees.GetCommitteeDraws(e.Request().Context(), committeeID)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, draws)
}

func (h *Handler) GetUserWiseDrawPaidAmount(e echo.Context) error {
	committeeID, err := pathID(e, "id")
	if err != nil {
		return h.transportError(e, err)
	}
	drawID, err := pathID(e, "drawId")
	if err != nil {
		return h.transportError(e, err)
	}

	rows, err := h.settlements.GetUserWiseDrawPaidAmount(e.Request().Context(), committeeID, drawID)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, rows)
}

func (h *Handler) CreateCommittee(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	req := &model.CommitteeCreate{}
	if err := h.decodeRequest(e, req); err != nil {
		l.Warn("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	committee, err := h.committees.CreateCommittee(e.Request().Context(), PrincipalFromContext(e), req)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, committee)
}

func (h *Handler) AddMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	req := &model.AddMember{}
	err := ProcessRequest(e, req, bindBody[model.AddMember], func(e echo.Context, r *model.AddMember) error {
		id, sErr := pathID(e, "id")
		if sErr != nil {
			return sErr
		}
		r.CommitteeID = id
		return nil
	}, validateBody[model.AddMember])
	if err != nil {
		l.Warn("invalid request", zap.Error(err))
		return h.transportError(e, asServiceError(err))
	}

	user, sErr := h.enrollment.AddMember(e.Request().Context(), PrincipalFromContext(e), req)
	if sErr != nil {
		return h.transportError(e, sErr)
	}

	return e.JSON(http.StatusCreated, user)
}

func (h *Handler) RecordPayment(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	req := &model.DrawPayment{}
	if err := h.decodeRequest(e, req); err != nil {
		l.Warn("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	row, err := h.settlements.RecordPayment(e.Request().Context(), PrincipalFromContext(e), req)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, row)
}

func (h *Handler) UpdateDrawAmount(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	req := &model.DrawAmountUpdate{}
	if err := h.decodeRequest(e, req); err != nil {
		l.Warn("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	draw, err := h.settlements.UpdateDrawAmount(e.Request().Context(), PrincipalFromContext(e), req)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, draw)
}

func (h *Handler) CompleteDraw(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	req := &model.DrawPayment{}
	if err := h.decodeRequest(e, req); err != nil {
		l.Warn("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	row, err := h.settlements.CompleteDraw(e.Request().Context(), PrincipalFromContext(e), req)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, row)
}

func (h *Handler) decodeRequest(e echo.Context, req any) *service.Error {
	if err := e.Bind(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}

	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, errors.Wrap(err, "request validation failed").Error())
	}
	return nil
}

func bindBody[T any](e echo.Context, req *T) error {
	if err := (&echo.DefaultBinder{}).BindBody(e, req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}
	return nil
}

func validateBody[T any](e echo.Context, req *T) error {
	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, errors.Wrap(err, "request validation failed").Error())
	}
	return nil
}

func pathID(e echo.Context, name string) (int64, *service.Error) {
	id, err := strconv.ParseInt(e.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.NewError(service.ErrorCodeInvalidBody, "invalid "+name)
	}
	return id, nil
}

func asServiceError(err error) *service.Error {
	var res *service.Error
	if errors.As(err, &res) {
		return res
	}
	return service.NewError(service.ErrorCodeInvalidBody, err.Error())
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	response := struct {
		Error *service.Error `json:"error"`
	}{Error: err}

	return e.JSON(statusFor(err.Code), response)
}

func statusFor(code service.ErrorCode) int {
	switch code {
	case service.ErrorCodeNotFound, service.ErrorCodePaymentRequired:
		return http.StatusNotFound
	case service.ErrorCodeForbidden:
		return http.StatusForbidden
	case errorCodeUnauthorized:
		return http.StatusUnauthorized
	case service.ErrorCodeInvalidBody,
		service.ErrorCodeAlreadyMember,
		service.ErrorCodeCapacityExceeded,
		service.ErrorCodeAmountBelowMin,
		service.ErrorCodeDrawNotStarted,
		service.ErrorCodeLotteryNotConfigured,
		service.ErrorCodeNoMembers,
		service.ErrorCodeInvalidCommitteeType:
		return http.StatusBadRequest
	case service.ErrorCodeDrawAmountSet, service.ErrorCodeDrawTaken, service.ErrorCodeUserDrawTaken:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
