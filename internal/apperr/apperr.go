// Package apperr is the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Validation        Kind = "validation"
	NotFound          Kind = "not_found"
	Gateway           Kind = "gateway"
	Persistence       Kind = "persistence"
	InvalidTransition Kind = "invalid_transition"
	Unauthorized      Kind = "unauthorized"
)

type AppError struct {
	Kind      Kind
	PublicMsg string // safe to show to a customer or API caller
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.PublicMsg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.PublicMsg)
	}
	return string(e.Kind)
}

func (e *AppError) Unwrap() error { return e.Err }

func ValidationErr(publicMsg string) *AppError {
	return &AppError{Kind: Validation, PublicMsg: publicMsg}
}

func NotFoundErr(publicMsg string, err error) *AppError {
	return &AppError{Kind: NotFound, PublicMsg: publicMsg, Err: err}
}

func GatewayErr(err error) *AppError {
	return &AppError{Kind: Gateway, PublicMsg: "The payment service is not reachable right now. Please try again later.", Err: err}
}

func PersistenceErr(err error) *AppError {
	return &AppError{Kind: Persistence, PublicMsg: "We could not process your order. Please try again.", Err: err}
}

func InvalidTransitionErr(from, to string) *AppError {
	return &AppError{
		Kind:      InvalidTransition,
		PublicMsg: fmt.Sprintf("order cannot move from %s to %s", from, to),
	}
}

func UnauthorizedErr(publicMsg string) *AppError {
	return &AppError{Kind: Unauthorized, PublicMsg: publicMsg}
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}

func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		switch ae.Kind {
		case Validation:
			return http.StatusBadRequest
		case NotFound:
			return http.StatusNotFound
		case InvalidTransition:
			return http.StatusConflict
		case Unauthorized:
			return http.StatusUnauthorized
		case Gateway:
			return http.StatusBadGateway
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return "Something went wrong. Please try again later."
}
