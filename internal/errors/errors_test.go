package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
)

func TestProviderErrorMessage(t *testing.T) {
	err := New(ErrorTypeConnection, "ec2", "DescribeInstances", errors.New("dial tcp: timeout")).WithRegion("us-east-1")
	want := "ec2 DescribeInstances failed in us-east-1: dial tcp: timeout"
	if err.Error() != want {
		t.Fatalf("unexpected message: got %q, want %q", err.Error(), want)
	}
}

func TestFromAPIErrorClassifiesCodes(t *testing.T) {
	cases := []struct {
		code      string
		wantType  ErrorType
		retryable bool
	}{
		{"UnauthorizedOperation", ErrorTypeAccess, false},
		{"AccessDeniedException", ErrorTypeAccess, false},
		{"OptInRequired", ErrorTypeAccess, false},
		{"ExpiredTokenException", ErrorTypeAuth, false},
		{"AuthFailure", ErrorTypeAuth, false},
		{"Throttling", ErrorTypeRateLimit, true},
		{"RequestLimitExceeded", ErrorTypeRateLimit, true},
		{"DBInstanceNotFoundFault", ErrorTypeNotFound, false},
		{"InvalidInstanceID.NotFound", ErrorTypeNotFound, false},
		{"SomethingElse", ErrorTypeInternal, false},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			apiErr := &smithy.GenericAPIError{Code: tc.code, Message: "boom"}
			pe := FromAPIError("ec2", "DescribeInstances", "us-east-1", apiErr)
			if pe.Type != tc.wantType {
				t.Errorf("type = %s, want %s", pe.Type, tc.wantType)
			}
			if pe.Retryable != tc.retryable {
				t.Errorf("retryable = %v, want %v", pe.Retryable, tc.retryable)
			}
			if pe.Code != tc.code {
				t.Errorf("code = %q, want %q", pe.Code, tc.code)
			}
		})
	}
}

func TestFromAPIErrorDeadline(t *testing.T) {
	pe := FromAPIError("cloudwatch", "GetMetricStatistics", "eu-west-1",
		fmt.Errorf("request: %w", context.DeadlineExceeded))
	if pe.Type != ErrorTypeTimeout {
		t.Fatalf("expected timeout type, got %s", pe.Type)
	}
	if !pe.Retryable {
		t.Fatal("deadline errors should be retryable")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewConnectionError("sts", "GetCallerIdentity", errors.New("conn refused"))) {
		t.Error("connection errors should be retryable")
	}
	if IsRetryable(NewAuthError("sts", "GetCallerIdentity", errors.New("bad token"))) {
		t.Error("auth errors should not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("untyped errors should not be retryable")
	}
}

func TestIsAuthError(t *testing.T) {
	if !IsAuthError(NewAuthError("sts", "GetCallerIdentity", errors.New("expired"))) {
		t.Error("expected auth error detection for typed error")
	}
	if !IsAuthError(errors.New("operation error STS: GetCallerIdentity, failed to retrieve credentials")) {
		t.Error("expected auth error detection from message")
	}
	if IsAuthError(errors.New("socket closed")) {
		t.Error("unexpected auth classification")
	}
	if IsAuthError(nil) {
		t.Error("nil must not classify as auth error")
	}
}

func TestErrorsIs(t *testing.T) {
	err := New(ErrorTypeTimeout, "rds", "DescribeDBInstances", errors.New("slow"))
	if !errors.Is(err, ErrTimeout) {
		t.Fatal("expected errors.Is match on ErrTimeout")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("unexpected errors.Is match on ErrNotFound")
	}
}
