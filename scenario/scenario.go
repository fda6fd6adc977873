package scenario

import (
	"fmt"
	"os"
	"strings"

	"github.com/0x5487/exchange-simulator/protocol"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted trading session.
type Scenario struct {
	Name    string   `yaml:"name"`
	Clients []string `yaml:"clients"`
	Steps   []Step   `yaml:"steps"`
}

// Step is one instruction sent by one client, optionally followed by checks
// on the book.
type Step struct {
	Client   string  `yaml:"client"`
	Action   string  `yaml:"action"`
	Side     string  `yaml:"side"`
	Price    string  `yaml:"price"`
	Quantity int64   `yaml:"quantity"`
	Order    string  `yaml:"order"` // ref label or numeric order id
	Ref      string  `yaml:"ref"`   // binds the id acked for this placement
	Expect   *Expect `yaml:"expect"`
}

// Expect lists checks run after a step. Unset fields are not checked.
// An empty BestBid or BestAsk expects that side to be empty.
type Expect struct {
	BestBid           *string `yaml:"best_bid"`
	BestBidQuantity   *int64  `yaml:"best_bid_quantity"`
	BestAsk           *string `yaml:"best_ask"`
	BestAskQuantity   *int64  `yaml:"best_ask_quantity"`
	LastTradeQuantity *int64  `yaml:"last_trade_quantity"`
	LimitUp           *bool   `yaml:"limit_up"`
	LimitDown         *bool   `yaml:"limit_down"`
	RejectReason      *string `yaml:"reject_reason"`
}

var actions = map[string]protocol.Action{
	"place_limit":    protocol.ActionPlaceLimit,
	"place_market":   protocol.ActionPlaceMarket,
	"cancel":         protocol.ActionCancel,
	"amend_price":    protocol.ActionAmendPrice,
	"amend_quantity": protocol.ActionAmendQuantity,
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario: parse: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that every step names a known client, action and side.
func (sc *Scenario) Validate() error {
	clients := make(map[string]bool, len(sc.Clients))
	for _, name := range sc.Clients {
		if clients[name] {
			return fmt.Errorf("%w: duplicate client %q", ErrInvalidScenario, name)
		}
		clients[name] = true
	}

	for i, step := range sc.Steps {
		if !clients[step.Client] {
			return fmt.Errorf("%w: step %d: unknown client %q", ErrInvalidScenario, i+1, step.Client)
		}
		if _, ok := actions[step.Action]; !ok {
			return fmt.Errorf("%w: step %d: unknown action %q", ErrInvalidScenario, i+1, step.Action)
		}
		if _, err := parseSide(step.Side); err != nil {
			return fmt.Errorf("%w: step %d: %v", ErrInvalidScenario, i+1, err)
		}
	}
	return nil
}

func parseSide(s string) (protocol.Side, error) {
	switch strings.ToLower(s) {
	case "buy":
		return protocol.SideBuy, nil
	case "sell":
		return protocol.SideSell, nil
	default:
		return protocol.SideUnknown, fmt.Errorf("unknown side %q", s)
	}
}
