package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/aws/smithy-go"
)

// Base error types
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrTimeout          = errors.New("timeout")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConnectionFailed = errors.New("connection failed")
	ErrInternalError    = errors.New("internal error")
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeConnection ErrorType = "connection"
	ErrorTypeAuth       ErrorType = "authentication"
	ErrorTypeAccess     ErrorType = "authorization"
	ErrorTypeNotFound   ErrorType = "notfound"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeRateLimit  ErrorType = "ratelimit"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// ProviderError is a structured error for cloud query operations
type ProviderError struct {
	Type      ErrorType
	Op        string // Operation that failed (e.g., "DescribeInstances")
	Service   string // AWS service name (e.g., "ec2", "rds")
	Region    string // Region where the call was made, if regional
	Err       error  // Underlying error
	Code      string // AWS API error code if applicable
	Timestamp time.Time
	Retryable bool
}

func (e *ProviderError) Error() string {
	if e.Region != "" {
		return fmt.Sprintf("%s %s failed in %s: %v", e.Service, e.Op, e.Region, e.Err)
	}
	if e.Service != "" {
		return fmt.Sprintf("%s %s failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface
func (e *ProviderError) Is(target error) bool {
	if target == nil {
		return false
	}

	switch target {
	case ErrNotFound:
		return e.Type == ErrorTypeNotFound
	case ErrUnauthorized:
		return e.Type == ErrorTypeAuth
	case ErrForbidden:
		return e.Type == ErrorTypeAccess
	case ErrTimeout:
		return e.Type == ErrorTypeTimeout
	case ErrConnectionFailed:
		return e.Type == ErrorTypeConnection
	}

	return errors.Is(e.Err, target)
}

// New creates a new ProviderError
func New(errorType ErrorType, service, op string, err error) *ProviderError {
	return &ProviderError{
		Type:      errorType,
		Service:   service,
		Op:        op,
		Err:       err,
		Timestamp: time.Now(),
		Retryable: isRetryable(errorType),
	}
}

// WithRegion adds region information to the error
func (e *ProviderError) WithRegion(region string) *ProviderError {
	e.Region = region
	return e
}

func isRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeConnection, ErrorTypeTimeout, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}

// Helper constructors

func NewConnectionError(service, op string, err error) *ProviderError {
	return New(ErrorTypeConnection, service, op, err)
}

func NewAuthError(service, op string, err error) *ProviderError {
	return New(ErrorTypeAuth, service, op, err)
}

func NewNotFoundError(service, op string, err error) *ProviderError {
	return New(ErrorTypeNotFound, service, op, err)
}

func NewTimeoutError(service, op string, err error) *ProviderError {
	return New(ErrorTypeTimeout, service, op, err)
}

func NewRateLimitError(service, op string, err error) *ProviderError {
	return New(ErrorTypeRateLimit, service, op, err)
}

func NewConfigError(op string, err error) *ProviderError {
	return New(ErrorTypeConfig, "", op, err)
}

func NewInternalError(op string, err error) *ProviderError {
	return New(ErrorTypeInternal, "", op, err)
}

// FromAPIError classifies an AWS SDK call failure into a ProviderError.
// It inspects smithy API error codes first, then transport-level failures.
func FromAPIError(service, op, region string, err error) *ProviderError {
	pe := &ProviderError{
		Service:   service,
		Op:        op,
		Region:    region,
		Err:       err,
		Timestamp: time.Now(),
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		pe.Code = apiErr.ErrorCode()
		pe.Type = classifyCode(pe.Code)
		pe.Retryable = isRetryable(pe.Type)
		return pe
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		pe.Type = ErrorTypeTimeout
	case isNetError(err):
		pe.Type = ErrorTypeConnection
	default:
		pe.Type = ErrorTypeInternal
	}
	pe.Retryable = isRetryable(pe.Type)
	return pe
}

func classifyCode(code string) ErrorType {
	switch {
	case code == "UnauthorizedOperation",
		strings.HasPrefix(code, "AccessDenied"),
		code == "OptInRequired":
		return ErrorTypeAccess
	case strings.HasPrefix(code, "ExpiredToken"),
		code == "InvalidClientTokenId",
		code == "AuthFailure",
		code == "SignatureDoesNotMatch",
		code == "MissingAuthenticationToken":
		return ErrorTypeAuth
	case code == "Throttling",
		code == "ThrottlingException",
		code == "RequestLimitExceeded",
		code == "TooManyRequestsException":
		return ErrorTypeRateLimit
	case strings.HasSuffix(code, ".NotFound"),
		strings.HasSuffix(code, "NotFoundFault"),
		strings.HasSuffix(code, "NotFoundException"):
		return ErrorTypeNotFound
	case code == "RequestTimeout":
		return ErrorTypeTimeout
	default:
		return ErrorTypeInternal
	}
}

func isNetError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrConnectionFailed)
}

// IsAuthError checks if an error indicates missing or invalid credentials
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Type == ErrorTypeAuth || pe.Type == ErrorTypeAccess {
			return true
		}
	}

	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) {
		return true
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "no EC2 IMDS role found") ||
		strings.Contains(errMsg, "failed to retrieve credentials") ||
		strings.Contains(errMsg, "NoCredentialProviders") ||
		strings.Contains(errMsg, "static credentials are empty")
}

// GetType returns the error type, or ErrorTypeInternal for untyped errors
func GetType(err error) ErrorType {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeInternal
}
