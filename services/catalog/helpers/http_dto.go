package helpers

import (
	model "agentbay/internal/models"
)

// Request DTOs
type CreateProductRequest struct {
	Title           string   `json:"title" binding:"required"`
	Description     string   `json:"description"`
	Condition       string   `json:"condition"`
	Category        string   `json:"category"`
	SuggestedPrice  float64  `json:"suggested_price" binding:"gte=0"`
	ReservePrice    *float64 `json:"reserve_price" binding:"omitempty,gte=0"`
	Tags            []string `json:"tags"`
	Brand           string   `json:"brand"`
	Model           string   `json:"model"`
	ConfidenceScore *float64 `json:"confidence_score" binding:"omitempty,gte=0,lte=1"`
	ImageURL        string   `json:"image_url"`
}

type UpdateProductRequest struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Condition       *string   `json:"condition"`
	Category        *string   `json:"category"`
	SuggestedPrice  *float64  `json:"suggested_price" binding:"omitempty,gte=0"`
	Tags            *[]string `json:"tags"`
	Brand           *string   `json:"brand"`
	Model           *string   `json:"model"`
	ConfidenceScore *float64  `json:"confidence_score" binding:"omitempty,gte=0,lte=1"`
	ImageURL        *string   `json:"image_url"`
}

func (r CreateProductRequest) ToListingFields() model.ListingFields {
	return model.ListingFields{
		Title:           r.Title,
		Description:     r.Description,
		Condition:       r.Condition,
		Category:        r.Category,
		SuggestedPrice:  r.SuggestedPrice,
		ReservePrice:    r.ReservePrice,
		Tags:            r.Tags,
		Brand:           r.Brand,
		Model:           r.Model,
		ConfidenceScore: r.ConfidenceScore,
		ImageURL:        r.ImageURL,
	}
}

func (r UpdateProductRequest) ToPatch() model.ProductPatch {
	patch := model.ProductPatch{
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		SuggestedPrice:  r.SuggestedPrice,
		Brand:           r.Brand,
		Model:           r.Model,
		ConfidenceScore: r.ConfidenceScore,
		ImageURL:        r.ImageURL,
	}
	if r.Condition != nil {
		c := model.Condition(*r.Condition)
		patch.Condition = &c
	}
	if r.Tags != nil {
		tags := model.Tags(*r.Tags)
		patch.Tags = &tags
	}
	return patch
}
