package match

const (
	// EngineVersion is the current version of the exchange simulator
	EngineVersion = "v1.0.0"

	// LimitPercentage is how far a price may move away from the previous close
	// before it is outside the daily band.
	LimitPercentage = "0.5"

	DefaultPrevClose = 10
	DefaultTickSize  = "0.5"
	DefaultLotSize   = 500

	// MaxOrderQuantity caps a single instruction's quantity so level totals
	// stay well inside int64.
	MaxOrderQuantity int64 = 1_000_000_000_000
)
