// Package domainerr defines the structured error values surfaced by the
// service layer. Every rule violation carries a machine-readable code
// alongside the human message so clients can branch without string matching.
package domainerr

import (
	"errors"
	"net/http"
)

// Code identifies a domain rule violation.
type Code string

// Bid and auction error codes returned in the error body "code" field.
const (
	CodeAuctionNotFound          Code = "AUCTION_NOT_FOUND"
	CodeAuctionCompleted         Code = "AUCTION_COMPLETED"
	CodeUserAlreadyHasCard       Code = "USER_ALREADY_HAS_CARD"
	CodeInsufficientBalance      Code = "INSUFFICIENT_BALANCE"
	CodeBidBelowStarting         Code = "BID_BELOW_STARTING"
	CodeBidExceedsMax            Code = "BID_EXCEEDS_MAX"
	CodeBidNotExceedsMinimumStep Code = "BID_NOT_EXCEEDS_MINIMUM_STEP"
	CodeAuctionFinishedForbidden Code = "AUCTION_FINISHED_FORBIDDEN"
	CodeCardNotOwned             Code = "CARD_NOT_OWNED"
	CodeCardNotFound             Code = "CARD_NOT_FOUND"
	CodeCardInactive             Code = "CARD_INACTIVE"
	CodeEndTimeMovedBack         Code = "END_TIME_MOVED_BACK"
	CodeConversationNotFound     Code = "CONVERSATION_NOT_FOUND"
	CodePaymentNotFound          Code = "PAYMENT_NOT_FOUND"
	CodeSetNotFound              Code = "SET_NOT_FOUND"
	CodeUserNotFound             Code = "USER_NOT_FOUND"
	CodeValidation               Code = "VALIDATION"
)

// Error is a domain rule violation with an HTTP mapping.
type Error struct {
	Status  int
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NotFound builds a 404 domain error.
func NotFound(code Code, message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Message: message}
}

// BadRequest builds a 400 domain error.
func BadRequest(code Code, message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Message: message}
}

// Forbidden builds a 403 domain error.
func Forbidden(code Code, message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: code, Message: message}
}

// From extracts a domain error from an error chain.
func From(err error) (*Error, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// HasCode reports whether err is a domain error with the given code.
func HasCode(err error, code Code) bool {
	domainErr, ok := From(err)
	return ok && domainErr.Code == code
}
