package protocol

// DepthItem is one aggregated price level as exposed to readers of the book.
type DepthItem struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
	Count    int64  `json:"count"`
}

// GetDepthResponse represents the state of the order book depth.
type GetDepthResponse struct {
	UpdateID uint64       `json:"update_id"`
	Asks     []*DepthItem `json:"asks"`
	Bids     []*DepthItem `json:"bids"`
}

// GetStatsResponse contains statistics about the two sides of the book.
type GetStatsResponse struct {
	AskDepthCount int64 `json:"ask_depth_count"`
	AskOrderCount int64 `json:"ask_order_count"`
	BidDepthCount int64 `json:"bid_depth_count"`
	BidOrderCount int64 `json:"bid_order_count"`
}

// Side represents the order side (Buy/Sell).
type Side int8

const (
	SideUnknown Side = 0
	SideBuy     Side = 1
	SideSell    Side = 2
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the side an order of this side trades against.
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	default:
		return SideUnknown
	}
}

// OrderType represents the type of order.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// Action identifies what an inbound instruction asks the exchange to do.
type Action uint8

// Action numbering starts at 1 so the zero value is never a valid action.
const (
	ActionUnknown       Action = 0
	ActionPlaceLimit    Action = 1
	ActionPlaceMarket   Action = 2
	ActionCancel        Action = 3
	ActionAmendPrice    Action = 4
	ActionAmendQuantity Action = 5
)

func (a Action) String() string {
	switch a {
	case ActionPlaceLimit:
		return "PLACE_LIMIT"
	case ActionPlaceMarket:
		return "PLACE_MARKET"
	case ActionCancel:
		return "CANCEL"
	case ActionAmendPrice:
		return "AMEND_PRICE"
	case ActionAmendQuantity:
		return "AMEND_QUANTITY"
	default:
		return "UNKNOWN"
	}
}

// OrderState is the state tag carried by ack and reject messages.
type OrderState string

const (
	OrderStatePlaceAcked            OrderState = "PLACE_ACKED"
	OrderStatePlaceRejected         OrderState = "PLACE_REJECTED"
	OrderStateCancelAcked           OrderState = "CANCEL_ACKED"
	OrderStateCancelRejected        OrderState = "CANCEL_REJECTED"
	OrderStateAmendPriceAcked       OrderState = "AMEND_PRICE_ACKED"
	OrderStateAmendPriceRejected    OrderState = "AMEND_PRICE_REJECTED"
	OrderStateAmendQuantityAcked    OrderState = "AMEND_QUANTITY_ACKED"
	OrderStateAmendQuantityRejected OrderState = "AMEND_QUANTITY_REJECTED"
)

// IsReject reports whether the state is one of the *_REJECTED tags.
func (s OrderState) IsReject() bool {
	switch s {
	case OrderStatePlaceRejected, OrderStateCancelRejected,
		OrderStateAmendPriceRejected, OrderStateAmendQuantityRejected:
		return true
	}
	return false
}

// ClientState is the state tag carried by registration messages.
type ClientState string

const (
	ClientStateRegisterAcked      ClientState = "REGISTER_ACKED"
	ClientStateUnregisterAcked    ClientState = "UNREGISTER_ACKED"
	ClientStateUnregisterRejected ClientState = "UNREGISTER_REJECTED"
)

// LogType represents the type of a book event log.
type LogType string

const (
	LogTypeOpen   LogType = "open"
	LogTypeMatch  LogType = "match"
	LogTypeCancel LogType = "cancel"
	LogTypeAmend  LogType = "amend"
)

// RejectReason is the machine readable cause of a rejected instruction.
type RejectReason string

const (
	RejectReasonNone                      RejectReason = ""
	RejectReasonInvalidPrice              RejectReason = "INVALID_PRICE"
	RejectReasonOutOfBandPrice            RejectReason = "OUT_OF_BAND_PRICE"
	RejectReasonInvalidTick               RejectReason = "INVALID_TICK"
	RejectReasonOddLot                    RejectReason = "ODD_LOT"
	RejectReasonUnknownOrder              RejectReason = "UNKNOWN_ORDER"
	RejectReasonWrongSide                 RejectReason = "WRONG_SIDE"
	RejectReasonNoOpAmend                 RejectReason = "NO_OP_AMEND"
	RejectReasonQuantityIncreaseForbidden RejectReason = "QUANTITY_INCREASE_FORBIDDEN"
	RejectReasonZeroQuantity              RejectReason = "ZERO_QUANTITY"
	RejectReasonInvalidPayload            RejectReason = "INVALID_PAYLOAD"
)
