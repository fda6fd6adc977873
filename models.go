package match

import (
	"fmt"

	"github.com/0x5487/exchange-simulator/protocol"
	"github.com/shopspring/decimal"
)

type Side = protocol.Side

const (
	Buy  Side = protocol.SideBuy
	Sell Side = protocol.SideSell
)

type OrderType = protocol.OrderType

const (
	Market OrderType = protocol.OrderTypeMarket
	Limit  OrderType = protocol.OrderTypeLimit
)

type LogType = protocol.LogType

const (
	LogTypeOpen   LogType = protocol.LogTypeOpen
	LogTypeMatch  LogType = protocol.LogTypeMatch
	LogTypeCancel LogType = protocol.LogTypeCancel
	LogTypeAmend  LogType = protocol.LogTypeAmend
)

// DepthChange represents a change in the order book depth.
type DepthChange struct {
	Side     Side
	Price    Price
	SizeDiff int64
}

// BookConfig holds the per-instrument trading parameters.
type BookConfig struct {
	PrevClose decimal.Decimal `json:"prev_close" yaml:"prev_close"`
	TickSize  decimal.Decimal `json:"tick_size" yaml:"tick_size"`
	LotSize   int64           `json:"lot_size" yaml:"lot_size"`
}

// DefaultBookConfig returns the parameters used when nothing else is configured.
func DefaultBookConfig() BookConfig {
	return BookConfig{
		PrevClose: decimal.NewFromInt(DefaultPrevClose),
		TickSize:  decimal.RequireFromString(DefaultTickSize),
		LotSize:   DefaultLotSize,
	}
}

// Validate checks that the parameters describe a usable book.
// A zero TickSize or LotSize disables the corresponding check.
func (c BookConfig) Validate() error {
	if c.PrevClose.Sign() <= 0 {
		return fmt.Errorf("%w: prev close must be positive, got %s", ErrInvalidConfig, c.PrevClose)
	}
	if !NewPrice(c.PrevClose).IsValid() {
		return fmt.Errorf("%w: prev close %s has more than %d decimal places", ErrInvalidConfig, c.PrevClose, PriceScale)
	}
	if c.TickSize.Sign() < 0 {
		return fmt.Errorf("%w: tick size must not be negative, got %s", ErrInvalidConfig, c.TickSize)
	}
	if c.TickSize.Sign() > 0 && !NewPrice(c.TickSize).IsValid() {
		return fmt.Errorf("%w: tick size %s has more than %d decimal places", ErrInvalidConfig, c.TickSize, PriceScale)
	}
	if c.LotSize < 0 {
		return fmt.Errorf("%w: lot size must not be negative, got %d", ErrInvalidConfig, c.LotSize)
	}
	return nil
}
