package types

import (
	"errors"
	"fmt"
)

// Kind classifies a HouseError so callers can branch on the failure category
// without matching individual codes.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindState         Kind = "state"
	KindAuthorization Kind = "authorization"
	KindPolicy        Kind = "policy-rejection"
	KindBalance       Kind = "balance"
	KindDuplicate     Kind = "duplicate"
)

// HouseError is a classified failure returned by the ledger and its capabilities.
// Sentinels below are compared with errors.Is; operations wrap them with context.
type HouseError struct {
	Kind    Kind   // Failure category
	Code    string // Stable machine-readable code
	Message string // Human-readable error message
}

func (e *HouseError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func newError(kind Kind, code string, message string) *HouseError {
	return &HouseError{Kind: kind, Code: code, Message: message}
}

// Validation errors
//
//nolint:gochecknoglobals // Sentinel errors
var (
	ErrZeroAddress     = newError(KindValidation, "ZERO_ADDRESS", "zero address not allowed")
	ErrInvalidSchedule = newError(KindValidation, "INVALID_SCHEDULE", "invalid bet schedule")
	ErrInvalidRates    = newError(KindValidation, "INVALID_RATES", "min rate exceeds max rate")
	ErrInvalidAmount   = newError(KindValidation, "INVALID_AMOUNT", "amount out of uint256 range")
	ErrZeroAmount      = newError(KindValidation, "ZERO_AMOUNT", "amount must be positive")
	ErrLowAmount       = newError(KindValidation, "LOW_AMOUNT", "amount below minimum play amount")
	ErrInvalidOption   = newError(KindValidation, "INVALID_OPTION", "option cannot be empty")
	ErrRateTooHigh     = newError(KindValidation, "RATE_TOO_HIGH", "rate above maximum")
)

// State errors
//
//nolint:gochecknoglobals // Sentinel errors
var (
	ErrBetClosedOrMissing = newError(KindState, "BET_CLOSED_OR_MISSING", "bet closed or not exists")
	ErrOptionLocked       = newError(KindState, "OPTION_LOCKED", "cant change option")
	ErrInEmergency        = newError(KindState, "IN_EMERGENCY", "bet in emergency")
	ErrNotClosed          = newError(KindState, "NOT_CLOSED", "bet not closed")
	ErrAlreadyResolved    = newError(KindState, "ALREADY_RESOLVED", "win option already set")
	ErrNotResolved        = newError(KindState, "NOT_RESOLVED", "win option not set")
	ErrLost               = newError(KindState, "LOST", "position lost")
	ErrRenounced          = newError(KindState, "RENOUNCED", "migration renounced")
)

// Authorization errors
//
//nolint:gochecknoglobals // Sentinel errors
var (
	ErrNotAuthorized = newError(KindAuthorization, "NOT_AUTHORIZED", "caller is not the resolver")
	ErrNotFeeOwner   = newError(KindAuthorization, "NOT_FEE_OWNER", "caller is not the fee owner")
	ErrNotOwner      = newError(KindAuthorization, "NOT_OWNER", "caller is not the owner")
)

// Policy rejections raised when an oracle vetoes an operation.
//
//nolint:gochecknoglobals // Sentinel errors
var (
	ErrOracleRejectedCreate  = newError(KindPolicy, "ORACLE_REJECTED_CREATE", "oracle rejected create")
	ErrOracleRejectedPlay    = newError(KindPolicy, "ORACLE_REJECTED_PLAY", "oracle rejected play")
	ErrOracleRejectedCollect = newError(KindPolicy, "ORACLE_REJECTED_COLLECT", "oracle rejected collect")
)

// Balance errors
//
//nolint:gochecknoglobals // Sentinel errors
var (
	ErrNoBalance             = newError(KindBalance, "NO_BALANCE", "no balance to withdraw")
	ErrInsufficientBalance   = newError(KindBalance, "INSUFFICIENT_BALANCE", "transfer amount exceeds balance")
	ErrInsufficientAllowance = newError(KindBalance, "INSUFFICIENT_ALLOWANCE", "transfer amount exceeds allowance")
	ErrUnknownAsset          = newError(KindBalance, "UNKNOWN_ASSET", "asset not registered")
)

// Duplicate errors
//
//nolint:gochecknoglobals // Sentinel errors
var (
	ErrAlreadyExists = newError(KindDuplicate, "ALREADY_EXISTS", "bet already created")
)

// KindOf returns the category of the first HouseError in err's chain, or "" if none.
func KindOf(err error) Kind {
	var he *HouseError
	if errors.As(err, &he) {
		return he.Kind
	}
	return ""
}

// CodeOf returns the code of the first HouseError in err's chain, or "" if none.
func CodeOf(err error) string {
	var he *HouseError
	if errors.As(err, &he) {
		return he.Code
	}
	return ""
}
