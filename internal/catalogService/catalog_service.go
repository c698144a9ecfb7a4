package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"

	bidding "agentbay/internal/biddingService"
	"agentbay/internal/biddingerrors"
	"agentbay/internal/models"
	"agentbay/internal/repository"
	"agentbay/utils"
)

const maxTitleLength = 200

// CatalogService manages listings and catalog search
type CatalogService struct {
	repo      repository.Catalog
	generator ListingGenerator
}

// NewCatalogService creates a new CatalogService. A nil generator falls back
// to FallbackGenerator.
func NewCatalogService(repo repository.Catalog, generator ListingGenerator) *CatalogService {
	if generator == nil {
		generator = FallbackGenerator{}
	}
	return &CatalogService{repo: repo, generator: generator}
}

// Create validates listing fields and stores a new product
func (s *CatalogService) Create(ctx context.Context, fields models.ListingFields) (models.Product, error) {
	product, err := productFromFields(fields)
	if err != nil {
		return models.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return models.Product{}, fmt.Errorf("service: failed to create product: %w", err)
	}

	utils.Info("product created", map[string]any{
		"product_id":      created.ID,
		"title":           created.Title,
		"suggested_price": created.SuggestedPrice,
	})
	return created, nil
}

// CreateFromImage generates listing fields from a photo and stores the
// product. Generator failures fall back to the default listing.
func (s *CatalogService) CreateFromImage(ctx context.Context, image []byte, imageURL string) (models.Product, error) {
	if len(image) == 0 {
		return models.Product{}, fmt.Errorf("service: %w - empty image", biddingerrors.ErrInvalidProduct)
	}

	fields, err := s.generator.Generate(ctx, image)
	if err != nil {
		utils.Warn("listing generation failed, using fallback listing", map[string]any{
			"error": err.Error(),
		})
		fields, _ = FallbackGenerator{}.Generate(ctx, image)
	}
	if fields.ImageURL == "" {
		fields.ImageURL = imageURL
	}
	return s.Create(ctx, fields)
}

// Get returns a product by id
func (s *CatalogService) Get(ctx context.Context, productID int64) (models.Product, error) {
	if productID <= 0 {
		return models.Product{}, fmt.Errorf("service: %w - invalid product ID", biddingerrors.ErrInvalidProduct)
	}
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return models.Product{}, fmt.Errorf("service: failed to get product %d: %w", productID, err)
	}
	return p, nil
}

// Update edits the descriptive fields of a product. Auction fields such as
// current_bid are not reachable from a patch.
func (s *CatalogService) Update(ctx context.Context, productID int64, patch models.ProductPatch) (models.Product, error) {
	if productID <= 0 {
		return models.Product{}, fmt.Errorf("service: %w - invalid product ID", biddingerrors.ErrInvalidProduct)
	}
	if err := validatePatch(&patch); err != nil {
		return models.Product{}, err
	}

	p, err := s.repo.UpdateProduct(ctx, productID, patch)
	if err != nil {
		return models.Product{}, fmt.Errorf("service: failed to update product %d: %w", productID, err)
	}
	utils.Info("product updated", map[string]any{"product_id": productID})
	return p, nil
}

// Delete removes a product and its bids. It reports whether the product existed.
func (s *CatalogService) Delete(ctx context.Context, productID int64) (bool, error) {
	if productID <= 0 {
		return false, fmt.Errorf("service: %w - invalid product ID", biddingerrors.ErrInvalidProduct)
	}
	deleted, err := s.repo.DeleteProduct(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("service: failed to delete product %d: %w", productID, err)
	}
	if deleted {
		utils.Info("product deleted", map[string]any{"product_id": productID})
	}
	return deleted, nil
}

// Search filters the catalog, newest listings first
func (s *CatalogService) Search(ctx context.Context, filter models.SearchFilter) ([]models.Product, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, fmt.Errorf("service: %w - min_price above max_price", biddingerrors.ErrInvalidProduct)
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Limit = bidding.NormalizeLimit(filter.Limit)
	filter.Text = strings.TrimSpace(filter.Text)

	products, err := s.repo.SearchProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to search products: %w", err)
	}
	return products, nil
}

// List returns a page of the catalog
func (s *CatalogService) List(ctx context.Context, limit, offset int) ([]models.Product, error) {
	return s.Search(ctx, models.SearchFilter{Limit: limit, Offset: offset})
}

func productFromFields(f models.ListingFields) (models.Product, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return models.Product{}, fmt.Errorf("service: %w - title is required", biddingerrors.ErrInvalidProduct)
	}
	if len(title) > maxTitleLength {
		return models.Product{}, fmt.Errorf("service: %w - title longer than %d characters", biddingerrors.ErrInvalidProduct, maxTitleLength)
	}

	condition := models.ConditionGood
	if strings.TrimSpace(f.Condition) != "" {
		c, err := models.ParseCondition(f.Condition)
		if err != nil {
			return models.Product{}, fmt.Errorf("service: %w: %w", biddingerrors.ErrInvalidProduct, err)
		}
		condition = c
	}

	if !validAmount(f.SuggestedPrice) {
		return models.Product{}, fmt.Errorf("service: %w - suggested_price must be a non-negative number", biddingerrors.ErrInvalidProduct)
	}
	if f.ReservePrice != nil && !validAmount(*f.ReservePrice) {
		return models.Product{}, fmt.Errorf("service: %w - reserve_price must be a non-negative number", biddingerrors.ErrInvalidProduct)
	}

	confidence := fallbackConfidence
	if f.ConfidenceScore != nil {
		confidence = clamp01(*f.ConfidenceScore)
	}

	return models.Product{
		Title:           title,
		Description:     strings.TrimSpace(f.Description),
		Condition:       condition,
		Category:        strings.TrimSpace(f.Category),
		Brand:           strings.TrimSpace(f.Brand),
		Model:           strings.TrimSpace(f.Model),
		Tags:            cleanTags(f.Tags),
		SuggestedPrice:  f.SuggestedPrice,
		ReservePrice:    f.ReservePrice,
		ConfidenceScore: confidence,
		ImageURL:        f.ImageURL,
	}, nil
}

func validatePatch(p *models.ProductPatch) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" || len(title) > maxTitleLength {
			return fmt.Errorf("service: %w - invalid title", biddingerrors.ErrInvalidProduct)
		}
		p.Title = &title
	}
	if p.Condition != nil {
		c, err := models.ParseCondition(string(*p.Condition))
		if err != nil {
			return fmt.Errorf("service: %w: %w", biddingerrors.ErrInvalidProduct, err)
		}
		p.Condition = &c
	}
	if p.SuggestedPrice != nil && !validAmount(*p.SuggestedPrice) {
		return fmt.Errorf("service: %w - suggested_price must be a non-negative number", biddingerrors.ErrInvalidProduct)
	}
	if p.ConfidenceScore != nil {
		v := clamp01(*p.ConfidenceScore)
		p.ConfidenceScore = &v
	}
	if p.Tags != nil {
		tags := cleanTags(*p.Tags)
		p.Tags = &tags
	}
	return nil
}

func cleanTags(in []string) models.Tags {
	out := models.Tags{}
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return fallbackConfidence
	}
	return math.Min(1, math.Max(0, v))
}
