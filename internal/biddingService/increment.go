package bidding

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// IncrementTier applies Increment to every current bid at or above Floor,
// up to the next tier's floor.
type IncrementTier struct {
	Floor     decimal.Decimal
	Increment decimal.Decimal
}

// IncrementPolicy maps a current bid to the minimum raise over it
type IncrementPolicy struct {
	tiers []IncrementTier
}

// Tier builds an IncrementTier from decimal strings. It panics on malformed input.
func Tier(floor, increment string) IncrementTier {
	return IncrementTier{
		Floor:     decimal.RequireFromString(floor),
		Increment: decimal.RequireFromString(increment),
	}
}

// DefaultIncrementPolicy is the standard step table
func DefaultIncrementPolicy() IncrementPolicy {
	return IncrementPolicy{tiers: []IncrementTier{
		Tier("0", "1.00"),
		Tier("25", "2.50"),
		Tier("100", "5.00"),
		Tier("500", "10.00"),
		Tier("1000", "25.00"),
	}}
}

// NewIncrementPolicy validates and builds a policy. Tiers must start at zero,
// be strictly ascending and carry positive increments.
func NewIncrementPolicy(tiers ...IncrementTier) (IncrementPolicy, error) {
	if len(tiers) == 0 {
		return IncrementPolicy{}, fmt.Errorf("increment policy: no tiers")
	}
	if !tiers[0].Floor.IsZero() {
		return IncrementPolicy{}, fmt.Errorf("increment policy: first tier must start at 0, got %s", tiers[0].Floor)
	}
	for i, t := range tiers {
		if !t.Increment.IsPositive() {
			return IncrementPolicy{}, fmt.Errorf("increment policy: tier %d has non-positive increment %s", i, t.Increment)
		}
		if i > 0 && !t.Floor.GreaterThan(tiers[i-1].Floor) {
			return IncrementPolicy{}, fmt.Errorf("increment policy: tier %d floor %s is not above %s", i, t.Floor, tiers[i-1].Floor)
		}
	}
	return IncrementPolicy{tiers: append([]IncrementTier(nil), tiers...)}, nil
}

// ParseIncrementPolicy reads a comma separated list of floor:increment pairs,
// e.g. "0:1,25:2.5,100:5".
func ParseIncrementPolicy(raw string) (IncrementPolicy, error) {
	var tiers []IncrementTier
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		floor, inc, ok := strings.Cut(pair, ":")
		if !ok {
			return IncrementPolicy{}, fmt.Errorf("increment policy: tier %q is not floor:increment", pair)
		}
		f, err := decimal.NewFromString(strings.TrimSpace(floor))
		if err != nil {
			return IncrementPolicy{}, fmt.Errorf("increment policy: floor %q: %w", floor, err)
		}
		i, err := decimal.NewFromString(strings.TrimSpace(inc))
		if err != nil {
			return IncrementPolicy{}, fmt.Errorf("increment policy: increment %q: %w", inc, err)
		}
		tiers = append(tiers, IncrementTier{Floor: f, Increment: i})
	}
	return NewIncrementPolicy(tiers...)
}

// String renders the policy in the form ParseIncrementPolicy reads
func (p IncrementPolicy) String() string {
	parts := make([]string, len(p.tiers))
	for i, t := range p.tiers {
		parts[i] = t.Floor.String() + ":" + t.Increment.String()
	}
	return strings.Join(parts, ",")
}

func (p IncrementPolicy) increment(current decimal.Decimal) decimal.Decimal {
	inc := p.tiers[0].Increment
	for _, t := range p.tiers {
		if current.LessThan(t.Floor) {
			break
		}
		inc = t.Increment
	}
	return inc
}

// Increment returns the minimum raise required over current
func (p IncrementPolicy) Increment(current float64) float64 {
	return p.increment(decimal.NewFromFloat(current)).InexactFloat64()
}

// MinimumNext returns the smallest amount a new bid must reach
func (p IncrementPolicy) MinimumNext(current float64) float64 {
	cur := decimal.NewFromFloat(current)
	return cur.Add(p.increment(cur)).InexactFloat64()
}

// check classifies amount against current: it returns the minimum acceptable
// amount and whether amount is above current and reaches that minimum.
func (p IncrementPolicy) check(current, amount float64) (minimum float64, aboveCurrent, meetsIncrement bool) {
	cur := decimal.NewFromFloat(current)
	amt := decimal.NewFromFloat(amount)
	next := cur.Add(p.increment(cur))
	return next.InexactFloat64(), amt.GreaterThan(cur), amt.GreaterThanOrEqual(next)
}
