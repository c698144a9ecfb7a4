package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// BidStatus is the lifecycle state of a ledger entry
type BidStatus string

const (
	BidActive  BidStatus = "active"
	BidWinning BidStatus = "winning"
	BidOutbid  BidStatus = "outbid"
	BidWon     BidStatus = "won"
	BidLost    BidStatus = "lost"
)

// EligibleStatuses are the statuses a bid can hold while it still competes
var EligibleStatuses = []BidStatus{BidActive, BidWinning}

// Valid reports whether s is a known bid status
func (s BidStatus) Valid() bool {
	switch s {
	case BidActive, BidWinning, BidOutbid, BidWon, BidLost:
		return true
	}
	return false
}

// Eligible reports whether a bid in this status can still win the auction
func (s BidStatus) Eligible() bool {
	switch s {
	case BidActive, BidWinning:
		return true
	case BidOutbid, BidWon, BidLost:
		return false
	}
	return false
}

// CanTransition reports whether a bid may move from s to next.
// Outbid, won and lost bids never compete again.
func (s BidStatus) CanTransition(next BidStatus) bool {
	switch s {
	case BidActive:
		return next == BidWinning || next == BidOutbid || next == BidLost
	case BidWinning:
		return next == BidOutbid || next == BidWon
	case BidOutbid:
		return next == BidLost
	case BidWon, BidLost:
		return false
	}
	return false
}

// Condition is the physical condition of a listed product
type Condition string

const (
	ConditionNew       Condition = "new"
	ConditionLikeNew   Condition = "like_new"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
	ConditionForParts  Condition = "for_parts"
)

// ParseCondition normalizes free-form input ("Like New", "for-parts") into a Condition
func ParseCondition(s string) (Condition, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	c := Condition(norm)
	if !c.Valid() {
		return "", fmt.Errorf("unknown condition %q", s)
	}
	return c, nil
}

// Valid reports whether c is a known condition
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionExcellent, ConditionGood,
		ConditionFair, ConditionPoor, ConditionForParts:
		return true
	}
	return false
}

// PriceFactor scales a base price by how worn the product is
func (c Condition) PriceFactor() float64 {
	switch c {
	case ConditionNew:
		return 1.5
	case ConditionLikeNew:
		return 1.3
	case ConditionExcellent:
		return 1.2
	case ConditionGood:
		return 1.0
	case ConditionFair:
		return 0.7
	case ConditionPoor:
		return 0.4
	case ConditionForParts:
		return 0.2
	}
	return 1.0
}

// AuctionStatus is the state of the auction attached to a product
type AuctionStatus string

const (
	AuctionOpen   AuctionStatus = "open"
	AuctionClosed AuctionStatus = "closed"
)

// Tags is an ordered list of keywords, stored as a JSON array
type Tags []string

// Value implements driver.Valuer
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("tags: unsupported source type %T", src)
	}
	if len(raw) == 0 {
		*t = Tags{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*t = out
	return nil
}
