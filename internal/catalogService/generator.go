package catalog

import (
	"context"

	"agentbay/internal/models"

	"github.com/shopspring/decimal"
)

// ListingGenerator turns a product photo into listing fields
type ListingGenerator interface {
	Generate(ctx context.Context, image []byte) (models.ListingFields, error)
}

const (
	fallbackTitle      = "Untitled listing"
	fallbackCategory   = "General"
	fallbackConfidence = 0.7
)

var basePrice = decimal.NewFromInt(20)

// SuggestPrice scales the base price by the condition factor, rounded to cents
func SuggestPrice(c models.Condition) float64 {
	return basePrice.Mul(decimal.NewFromFloat(c.PriceFactor())).Round(2).InexactFloat64()
}

// FallbackGenerator produces the default listing used when image analysis
// is unavailable or its output cannot be parsed.
type FallbackGenerator struct{}

func (FallbackGenerator) Generate(_ context.Context, _ []byte) (models.ListingFields, error) {
	confidence := fallbackConfidence
	return models.ListingFields{
		Title:           fallbackTitle,
		Description:     "This is a listing for a product.",
		Condition:       string(models.ConditionGood),
		Category:        fallbackCategory,
		SuggestedPrice:  SuggestPrice(models.ConditionGood),
		Tags:            []string{},
		ConfidenceScore: &confidence,
	}, nil
}
