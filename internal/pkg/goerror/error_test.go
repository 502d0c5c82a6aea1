package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError(t *testing.T) {
	t.Run("StatusCodeMapping", func(t *testing.T) {
		// Arrange
		cases := []struct {
			code Code
			want int
		}{
			{CodeInvalidFormat, http.StatusBadRequest},
			{CodeExpired, http.StatusBadRequest},
			{CodeInvalidInput, http.StatusUnprocessableEntity},
			{CodeNotFound, http.StatusNotFound},
			{CodeUnauthorized, http.StatusUnauthorized},
			{CodeForbidden, http.StatusForbidden},
			{CodeTimeout, http.StatusRequestTimeout},
			{CodeTooManyRequest, http.StatusTooManyRequests},
			{CodeConflict, http.StatusConflict},
			{CodeInternal, http.StatusInternalServerError},
			{CodeUnavailable, http.StatusInternalServerError},
			{CodeDeliveryFailed, http.StatusBadGateway},
		}

		for _, c := range cases {
			// Act
			err := NewBusiness("message", c.code)

			// Assert
			var ge *Error
			if !errors.As(err, &ge) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if got := ge.StatusCode(); got != c.want {
				t.Fatalf("code %v: expected status %d, got %d", c.code, c.want, got)
			}
		}
	})

	t.Run("CodeOfExtractsThroughWrapping", func(t *testing.T) {
		// Arrange
		err := fmt.Errorf("outer: %w", NewBusiness("inner", CodeConflict))

		// Act & Assert
		if got := CodeOf(err); got != CodeConflict {
			t.Fatalf("expected CodeConflict, got %v", got)
		}
		if got := CodeOf(errors.New("plain")); got != CodeInternal {
			t.Fatalf("plain errors map to CodeInternal, got %v", got)
		}
	})

	t.Run("ServerErrorKeepsTheCause", func(t *testing.T) {
		// Arrange
		cause := errors.New("connection refused")

		// Act
		err := NewServer(cause)

		// Assert
		if !errors.Is(err, cause) {
			t.Fatalf("expected the cause to survive wrapping")
		}
		var ge *Error
		if !errors.As(err, &ge) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if ge.Type() != TypeServer || ge.Code() != CodeInternal {
			t.Fatalf("unexpected classification %v/%v", ge.Type(), ge.Code())
		}
	})

	t.Run("InvalidInputCollectsFieldMessages", func(t *testing.T) {
		// Arrange & Act
		err := NewInvalidInput(nil, "email", "must be a valid address", "code", "must be numeric")

		// Assert
		var ge *Error
		if !errors.As(err, &ge) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if ge.Code() != CodeInvalidInput {
			t.Fatalf("expected CodeInvalidInput, got %v", ge.Code())
		}
		fields := ge.Fields()
		if fields["email"] != "must be a valid address" || fields["code"] != "must be numeric" {
			t.Fatalf("unexpected fields %v", fields)
		}
	})

	t.Run("BusinessMessageIsTheError", func(t *testing.T) {
		// Arrange & Act
		err := NewBusiness("too many attempts, request a new code", CodeTooManyRequest)

		// Assert
		if err.Error() != "too many attempts, request a new code" {
			t.Fatalf("unexpected message %q", err.Error())
		}
	})
}
