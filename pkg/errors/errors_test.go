package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeAlreadyExists, status: http.StatusBadRequest, publicMsg: "resource already exists"},
		{code: CodeInvalidCredentials, status: http.StatusUnauthorized, publicMsg: "invalid email or password"},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeInvalidOrExpiredToken, status: http.StatusBadRequest, publicMsg: "invalid or expired token"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeIncorrectPassword, status: http.StatusBadRequest, publicMsg: "current password is incorrect"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeEmailSendFailed, status: http.StatusInternalServerError, publicMsg: "failed to send email", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "no entry"))
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
	if !IsCode(err, CodeForbidden) {
		t.Fatalf("IsCode should match wrapped typed error")
	}
	if IsCode(stdErrors.New("plain"), CodeForbidden) {
		t.Fatalf("IsCode should not match untyped error")
	}
}

func TestPublicHidesInternalMessages(t *testing.T) {
	code, msg := Public(Wrap(CodeInternal, stdErrors.New("pq: relation missing"), "load user"))
	if code != CodeInternal || msg != "internal server error" {
		t.Fatalf("unexpected public internal error %s %q", code, msg)
	}

	code, msg = Public(New(CodeInvalidOrExpiredToken, "Invalid or expired reset token"))
	if code != CodeInvalidOrExpiredToken || msg != "Invalid or expired reset token" {
		t.Fatalf("unexpected public token error %s %q", code, msg)
	}

	code, _ = Public(stdErrors.New("raw"))
	if code != CodeInternal {
		t.Fatalf("untyped errors should map to internal, got %s", code)
	}
}

func TestDumpCapturesPgDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email", TableName: "users"}
	err := Wrap(CodeAlreadyExists, pgErr, "insert user")

	d := Dump(err)
	if d.Code != CodeAlreadyExists {
		t.Fatalf("expected code in dump, got %s", d.Code)
	}
	if d.PGCode != "23505" || d.PGConstraint != "idx_users_email" || d.PGTable != "users" {
		t.Fatalf("unexpected pg fields %+v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(d.Chain))
	}
}
