package helpers

import (
	"fmt"
	"strconv"

	model "agentbay/internal/models"
	bidhelpers "agentbay/services/bidding/helpers"

	"github.com/gin-gonic/gin"
)

// ParseSearchFilter builds a catalog filter from the query string
func ParseSearchFilter(c *gin.Context) (model.SearchFilter, error) {
	limit, err := bidhelpers.ParseLimit(c)
	if err != nil {
		return model.SearchFilter{}, err
	}
	offset, err := bidhelpers.ParseOffset(c)
	if err != nil {
		return model.SearchFilter{}, err
	}
	minPrice, err := parsePrice(c, "min_price")
	if err != nil {
		return model.SearchFilter{}, err
	}
	maxPrice, err := parsePrice(c, "max_price")
	if err != nil {
		return model.SearchFilter{}, err
	}

	return model.SearchFilter{
		Text:     c.Query("q"),
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func parsePrice(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return &v, nil
}
