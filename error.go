package match

import (
	"errors"
	"fmt"

	"github.com/0x5487/exchange-simulator/protocol"
)

var (
	ErrInvalidParam  = errors.New("the param is invalid")
	ErrInvalidConfig = errors.New("the config is invalid")
	ErrTimeout       = errors.New("timeout")
	ErrShutdown      = errors.New("exchange is shutting down")
	ErrNotFound      = errors.New("not found")
	ErrSequenceGap   = errors.New("sequence gap detected")
)

// Sentinels for each reject reason. A *RejectError matches the sentinel of
// its reason with errors.Is.
var (
	ErrInvalidPrice              = errors.New("invalid price")
	ErrOutOfBandPrice            = errors.New("price outside daily band")
	ErrInvalidTick               = errors.New("price not a multiple of tick size")
	ErrOddLot                    = errors.New("odd lot")
	ErrUnknownOrder              = errors.New("unknown order")
	ErrWrongSide                 = errors.New("wrong side")
	ErrNoOpAmend                 = errors.New("amend does not change the order")
	ErrQuantityIncreaseForbidden = errors.New("quantity cannot be amended up")
	ErrZeroQuantity              = errors.New("quantity cannot be amended to zero")
	ErrInvalidPayload            = errors.New("invalid instruction payload")
)

var rejectSentinels = map[protocol.RejectReason]error{
	protocol.RejectReasonInvalidPrice:              ErrInvalidPrice,
	protocol.RejectReasonOutOfBandPrice:            ErrOutOfBandPrice,
	protocol.RejectReasonInvalidTick:               ErrInvalidTick,
	protocol.RejectReasonOddLot:                    ErrOddLot,
	protocol.RejectReasonUnknownOrder:              ErrUnknownOrder,
	protocol.RejectReasonWrongSide:                 ErrWrongSide,
	protocol.RejectReasonNoOpAmend:                 ErrNoOpAmend,
	protocol.RejectReasonQuantityIncreaseForbidden: ErrQuantityIncreaseForbidden,
	protocol.RejectReasonZeroQuantity:              ErrZeroQuantity,
	protocol.RejectReasonInvalidPayload:            ErrInvalidPayload,
}

// RejectError is returned when an instruction violates a business rule.
// Message is the text sent back to the client.
type RejectError struct {
	Reason  protocol.RejectReason
	Message string
}

func (e *RejectError) Error() string {
	return e.Message
}

func (e *RejectError) Is(target error) bool {
	return rejectSentinels[e.Reason] == target
}

func reject(reason protocol.RejectReason, format string, args ...any) *RejectError {
	return &RejectError{
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// rejectReasonOf extracts the reject reason and client facing message from err.
func rejectReasonOf(err error) (protocol.RejectReason, string) {
	var rejErr *RejectError
	if errors.As(err, &rejErr) {
		return rejErr.Reason, rejErr.Message
	}
	return protocol.RejectReasonInvalidPayload, err.Error()
}
