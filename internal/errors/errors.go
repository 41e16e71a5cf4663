package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"

	"github.com/yetria/guidance/internal/artifacts"
	"github.com/yetria/guidance/internal/features"
	"github.com/yetria/guidance/internal/predict"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryAuth          ErrorCategory = "auth"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryConflict      ErrorCategory = "conflict"
	CategoryPrediction    ErrorCategory = "prediction"
	CategoryInternal      ErrorCategory = "internal"
	CategoryConfiguration ErrorCategory = "configuration"
)

// AppError wraps errbuilder errors with the machine-readable kind and HTTP
// status the API layer exposes. The public prediction entry point never
// raises for expected conditions; it returns one of these.
type AppError struct {
	*errbuilder.ErrBuilder
	Kind       string        `json:"kind"`
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
	StackTrace string        `json:"stack_trace,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from an errbuilder with routing metadata.
func NewAppError(builder *errbuilder.ErrBuilder, kind string, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Kind:       kind,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewValidationError creates a bad-request error.
func NewValidationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return NewAppError(builder, "VALIDATION_ERROR", CategoryValidation, http.StatusBadRequest)
}

// NewInvalidScoreError flags a non-numeric competency score in the input.
func NewInvalidScoreError(cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("Competency scores must be numeric")
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return NewAppError(builder, "INVALID_SCORE_TYPE", CategoryValidation, http.StatusBadRequest)
}

// NewPredictionError wraps a downstream scaler/classifier failure into the
// structured payload the caller sees.
func NewPredictionError(cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Prediction could not be computed")
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return NewAppError(builder, "PREDICTION_ERROR", CategoryPrediction, http.StatusInternalServerError)
}

// NewUnauthorizedError creates an authentication failure error.
func NewUnauthorizedError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnauthenticated).
		WithMsg(message)
	return NewAppError(builder, "UNAUTHORIZED", CategoryAuth, http.StatusUnauthorized)
}

// NewNotFoundError creates a missing-resource error.
func NewNotFoundError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(message)
	return NewAppError(builder, "NOT_FOUND", CategoryNotFound, http.StatusNotFound)
}

// NewConflictError creates a duplicate-resource error.
func NewConflictError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeAlreadyExists).
		WithMsg(message)
	return NewAppError(builder, "CONFLICT", CategoryConflict, http.StatusConflict)
}

// NewInternalError creates an internal server error.
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, "INTERNAL_ERROR", CategoryInternal, http.StatusInternalServerError)
	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		appErr.StackTrace = captureStackTrace()
	}
	return appErr
}

// NewConfigurationError creates a fatal configuration error. The server
// refuses to start on these rather than degrade silently.
func NewConfigurationError(kind, message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return NewAppError(builder, kind, CategoryConfiguration, http.StatusInternalServerError)
}

// captureStackTrace captures a stack trace for debugging
func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ErrorHandler is a Gin middleware that provides centralized error handling
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			appErr := ToAppError(err)
			LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
		}
	}
}

// RecoveryHandler provides panic recovery with structured error responses
func RecoveryHandler() gin.HandlerFunc {
	return gin.RecoveryWithWriter(nil, func(c *gin.Context, err interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", err),
			fmt.Errorf("%v", err),
		)
		appErr.StackTrace = captureStackTrace()

		LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
	})
}

// ToAppError converts any error to an AppError, mapping the core's sentinel
// errors onto the taxonomy the API exposes.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return NewAppError(ebErr, "INTERNAL_ERROR", CategoryInternal, http.StatusInternalServerError)
	}

	switch {
	case errors.Is(err, features.ErrInvalidScoreType):
		return NewInvalidScoreError(err)
	case errors.Is(err, artifacts.ErrArtifactMissing):
		return NewConfigurationError("ARTIFACT_MISSING", "Required model artifact missing", err)
	case errors.Is(err, artifacts.ErrFeatureOrderMismatch):
		return NewConfigurationError("FEATURE_ORDER_MISMATCH", "Model artifacts disagree on feature order", err)
	}

	var predErr *predict.PredictionError
	if errors.As(err, &predErr) {
		return NewPredictionError(err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// LogError logs an error with appropriate level and context
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_kind", err.Kind,
		"error_category", err.Category,
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	switch err.Category {
	case CategoryValidation, CategoryAuth, CategoryNotFound, CategoryConflict:
		logEntry.Warn(err.ErrBuilder.Msg)
	case CategoryConfiguration:
		if cause := err.Unwrap(); cause != nil {
			logEntry.Error(err.ErrBuilder.Msg, "cause", cause)
		} else {
			logEntry.Error(err.ErrBuilder.Msg)
		}
	default:
		if cause := err.Unwrap(); cause != nil {
			logEntry.Error(err.ErrBuilder.Msg, "cause", cause)
		} else {
			logEntry.Error(err.ErrBuilder.Msg)
		}
	}
}
