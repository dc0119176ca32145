package core

import "errors"

// ErrorKind groups error codes by the reason a call was refused.
type ErrorKind string

const (
	KindAuthorization ErrorKind = "authorization"
	KindValidation    ErrorKind = "validation"
	KindTemporal      ErrorKind = "temporal"
	KindState         ErrorKind = "state"
	KindResource      ErrorKind = "resource"
	KindOwnership     ErrorKind = "ownership"
)

// Error is a refusal returned to the caller of a public operation.
// Codes are published and clients match on them, so they never change.
type Error struct {
	Code uint32
	Kind ErrorKind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

// Error codes. 1xx belong to the treasury, 2xx to the game engine.
var (
	ErrNotOwner          = &Error{Code: 100, Kind: KindAuthorization, msg: "caller is not the owner"}
	ErrUnauthorized      = &Error{Code: 101, Kind: KindAuthorization, msg: "caller is not an authorized game"}
	ErrInvalidAmount     = &Error{Code: 102, Kind: KindValidation, msg: "amount must be positive"}
	ErrInsufficientFunds = &Error{Code: 103, Kind: KindResource, msg: "insufficient funds"}

	ErrNotFound       = &Error{Code: 201, Kind: KindState, msg: "game not found"}
	ErrBelowMinimum   = &Error{Code: 202, Kind: KindValidation, msg: "bet below minimum"}
	ErrTooEarly       = &Error{Code: 203, Kind: KindTemporal, msg: "reveal not yet possible, wait for the next block"}
	ErrInvalidChoice  = &Error{Code: 204, Kind: KindValidation, msg: "choice must be 0 (red) or 1 (black)"}
	ErrAlreadySettled = &Error{Code: 205, Kind: KindState, msg: "game already settled"}
	ErrNotPlayer      = &Error{Code: 206, Kind: KindOwnership, msg: "only the player can settle this game"}
)

// CodeOf returns the published code carried by err, or 0 if err is not a
// refusal (nil or an infrastructure failure).
func CodeOf(err error) uint32 {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

var byCode = map[uint32]*Error{}

func init() {
	for _, e := range []*Error{
		ErrNotOwner, ErrUnauthorized, ErrInvalidAmount, ErrInsufficientFunds,
		ErrNotFound, ErrBelowMinimum, ErrTooEarly, ErrInvalidChoice, ErrAlreadySettled, ErrNotPlayer,
	} {
		byCode[e.Code] = e
	}
}

// Lookup returns the refusal with the given code.
func Lookup(code uint32) (*Error, bool) {
	e, ok := byCode[code]
	return e, ok
}
