package api

import (
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/committee-engine/internal/auth"
	"github.com/yakoovad/committee-engine/internal/model"
	"github.com/yakoovad/committee-engine/internal/service"
	"github.com/yakoovad/committee-engine/pkg/logger"
	"go.uber.org/zap"
)

const (
	loggerKey    = "logger"
	principalKey = "principal"

	errorCodeUnauthorized service.ErrorCode = "UNAUTHORIZED"
)

func ZapLoggerMiddleware(l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			reqLogger := l.With(
				zap.String("request_id", requestID),
			)

			c.Set(loggerKey, reqLogger)

			ctx := logger.WithLogger(req.Context(), reqLogger)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			latency := time.Since(start)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("remote_ip", c.RealIP()),
				zap.Int("status", res.Status),
				zap.Duration("latency", latency),
				zap.Int64("bytes_in", req.ContentLength),
				zap.Int64("bytes_out", res.Size),
			}

			if err != nil {
				fields = append(fields, zap.Error(err))
				reqLogger.Error("request failed", fields...)
			} else {
				reqLogger.Info("request completed", fields...)
			}

			return err
		}
	}
}

// AuthMiddleware accepts bearer tokens issued to one of the roles and stores the caller in the context.
func AuthMiddleware(tokens *auth.Tokens, roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := GetLoggerFromContext(c)

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return unauthorized(c, "missing bearer token")
			}

			p, err := tokens.Principal(token)
			if err != nil {
				l.Warn("rejected token", zap.Error(err))
				return unauthorized(c, "invalid token")
			}

			if !slices.Contains(roles, p.Role) {
				l.Warn("role not allowed", zap.Int64("user_id", p.ID), zap.String("role", string(p.Role)))
				return c.JSON(statusFor(service.ErrorCodeForbidden), struct {
					Error *service.Error `json:"error"`
				}{Error: service.NewError(service.ErrorCodeForbidden, "you are not authorized to perform this action")})
			}

			c.Set(principalKey, p)
			c.Set(loggerKey, l.With(zap.Int64("caller_id", p.ID)))
			c.SetRequest(c.Request().WithContext(
				logger.WithLogger(c.Request().Context(), GetLoggerFromContext(c)),
			))

			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(statusFor(errorCodeUnauthorized), struct {
		Error *service.Error `json:"error"`
	}{Error: service.NewError(errorCodeUnauthorized, msg)})
}

func PrincipalFromContext(c echo.Context) model.Principal {
	if p, ok := c.Get(principalKey).(model.Principal); ok {
		return p
	}
	return model.Principal{}
}

func GetLoggerFromContext(c echo.Context) *zap.Logger {
	if l, ok := c.Get(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
