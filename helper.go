package match

// CalculateDepthChange calculates the depth change based on the book log.
// It returns a DepthChange struct indicating which side and price level should be updated.
// Note: For LogTypeMatch, the side returned is the Maker's side (opposite of the log's side).
func CalculateDepthChange(log *BookLog) DepthChange {
	switch log.Type {
	case LogTypeOpen:
		return DepthChange{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: log.Size,
		}
	case LogTypeCancel:
		return DepthChange{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: -log.Size,
		}
	case LogTypeMatch:
		// The log side is the taker's, liquidity leaves the maker side.
		return DepthChange{
			Side:     log.Side.Opposite(),
			Price:    log.Price,
			SizeDiff: -log.Size,
		}
	case LogTypeAmend:
		// Price changed: the order left OldPrice. Where it went is reported by
		// the Open or Match events that follow.
		if !log.OldPrice.Equal(log.Price) || log.Size > log.OldSize {
			return DepthChange{
				Side:     log.Side,
				Price:    log.OldPrice,
				SizeDiff: -log.OldSize,
			}
		}

		// Quantity reduced in place.
		return DepthChange{
			Side:     log.Side,
			Price:    log.Price,
			SizeDiff: log.Size - log.OldSize,
		}
	}

	return DepthChange{}
}
