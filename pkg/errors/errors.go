package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeAlreadyExists         Code = "ALREADY_EXISTS"
	CodeInvalidCredentials    Code = "INVALID_CREDENTIALS"
	CodeUnauthorized          Code = "UNAUTHORIZED"
	CodeForbidden             Code = "FORBIDDEN"
	CodeInvalidOrExpiredToken Code = "INVALID_OR_EXPIRED_TOKEN"
	CodeNotFound              Code = "NOT_FOUND"
	CodeIncorrectPassword     Code = "INCORRECT_PASSWORD"
	CodeConflict              Code = "CONFLICT"
	CodeStateConflict         Code = "STATE_CONFLICT"
	CodeEmailSendFailed       Code = "EMAIL_SEND_FAILED"
	CodeInternal              Code = "INTERNAL_ERROR"
	CodeDependency            Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	// duplicate registrations surface as 400, matching the public auth contract
	CodeAlreadyExists: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "resource already exists",
	},
	CodeInvalidCredentials: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "invalid email or password",
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeInvalidOrExpiredToken: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "invalid or expired token",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeIncorrectPassword: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "current password is incorrect",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
	},
	CodeEmailSendFailed: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "failed to send email",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given typed code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// Public returns the message safe to show a client: the error's own message,
// or the code's public message when the error is untyped or blank.
func Public(err error) (Code, string) {
	typed := As(err)
	if typed == nil {
		meta := MetadataFor(CodeInternal)
		return CodeInternal, meta.PublicMessage
	}
	meta := MetadataFor(typed.code)
	if typed.code == CodeInternal || typed.message == "" {
		return typed.code, meta.PublicMessage
	}
	return typed.code, typed.message
}
