package service

import "github.com/pkg/errors"

type ErrorCode string

const (
	ErrorCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrorCodeForbidden            ErrorCode = "FORBIDDEN"
	ErrorCodeInvalidBody          ErrorCode = "INVALID_BODY"
	ErrorCodeAlreadyMember        ErrorCode = "ALREADY_MEMBER"
	ErrorCodeCapacityExceeded     ErrorCode = "CAPACITY_EXCEEDED"
	ErrorCodeDrawAmountSet        ErrorCode = "DRAW_AMOUNT_SET"
	ErrorCodeAmountBelowMin       ErrorCode = "AMOUNT_BELOW_MIN"
	ErrorCodeDrawNotStarted       ErrorCode = "DRAW_NOT_STARTED"
	ErrorCodeDrawTaken            ErrorCode = "DRAW_TAKEN"
	ErrorCodeUserDrawTaken        ErrorCode = "USER_DRAW_TAKEN"
	ErrorCodePaymentRequired      ErrorCode = "PAYMENT_REQUIRED"
	ErrorCodeLotteryNotConfigured ErrorCode = "LOTTERY_NOT_CONFIGURED"
	ErrorCodeNoMembers            ErrorCode = "NO_MEMBERS"
	ErrorCodeInvalidCommitteeType ErrorCode = "INVALID_COMMITTEE_TYPE"
	ErrorCodeUnspecified          ErrorCode = "UNSPECIFIED"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) Error() string {
	return e.Message
}

// asServiceError unwraps the typed error returned from a transaction.
// Anything else that escaped the transaction (commit or begin failures) becomes UNSPECIFIED.
func asServiceError(err error) *Error {
	if err == nil {
		return nil
	}

	var res *Error
	if errors.As(err, &res) {
		return res
	}
	return NewError(ErrorCodeUnspecified, "transaction failed")
}

func errAdminOnly() *Error {
	return NewError(ErrorCodeForbidden, "you are not authorized to perform this action")
}
