package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	model "agentbay/internal/models"
)

// CreateProduct inserts a new listing. The current bid starts at the suggested price.
func (s *Store) CreateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.CurrentBid = p.SuggestedPrice
	p.BidCount = 0
	p.AuctionStatus = model.AuctionOpen
	if p.Tags == nil {
		p.Tags = model.Tags{}
	}
	tags, err := p.Tags.Value()
	if err != nil {
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}

	err = s.db.QueryRowxContext(ctx, s.db.Rebind(`
		INSERT INTO products(title, description, condition, category, brand, model, tags,
		  suggested_price, current_bid, reserve_price, bid_count, confidence_score, image_url,
		  auction_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)
		RETURNING id`),
		p.Title, p.Description, string(p.Condition), p.Category, p.Brand, p.Model, tags,
		p.SuggestedPrice, p.CurrentBid, nullFloat(p.ReservePrice), p.ConfidenceScore, p.ImageURL,
		string(p.AuctionStatus), p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return model.Product{}, wrapDBError("create product", err)
	}
	return p, nil
}

// UpdateProduct applies a patch of non-auction fields and returns the updated
// product. It runs under the product lock; a new suggested price also moves
// current_bid while the product has no bids.
func (s *Store) UpdateProduct(ctx context.Context, productID int64, patch model.ProductPatch) (model.Product, error) {
	if patch.Empty() {
		return s.GetProduct(ctx, productID)
	}

	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Condition != nil {
		add("condition", string(*patch.Condition))
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.SuggestedPrice != nil {
		add("suggested_price", *patch.SuggestedPrice)
		sets = append(sets, `current_bid = CASE WHEN NOT EXISTS (SELECT 1 FROM bids WHERE bids.product_id = products.id)
		  THEN ? ELSE current_bid END`)
		args = append(args, *patch.SuggestedPrice)
	}
	if patch.Tags != nil {
		tags, err := patch.Tags.Value()
		if err != nil {
			return model.Product{}, fmt.Errorf("update product %d: %w", productID, err)
		}
		add("tags", tags)
	}
	if patch.Brand != nil {
		add("brand", *patch.Brand)
	}
	if patch.Model != nil {
		add("model", *patch.Model)
	}
	if patch.ConfidenceScore != nil {
		add("confidence_score", *patch.ConfidenceScore)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	add("updated_at", time.Now().UTC())
	args = append(args, productID)

	var out model.Product
	err := s.RunInTx(ctx, func(tx LedgerTx) error {
		if _, err := tx.LockProduct(ctx, productID); err != nil {
			return fmt.Errorf("update product %d: %w", productID, err)
		}
		ltx := tx.(*ledgerTx)
		query := `UPDATE products SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if _, err := ltx.tx.ExecContext(ctx, ltx.tx.Rebind(query), args...); err != nil {
			return wrapDBError(fmt.Sprintf("update product %d", productID), err)
		}
		var err error
		out, err = tx.LockProduct(ctx, productID)
		return err
	})
	if err != nil {
		return model.Product{}, err
	}
	return out, nil
}

// DeleteProduct removes a product together with its bids.
// It reports false when the product does not exist.
func (s *Store) DeleteProduct(ctx context.Context, productID int64) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, wrapDBError("begin delete product", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM bids WHERE product_id = ?`), productID); err != nil {
		return false, wrapDBError(fmt.Sprintf("delete bids of product %d", productID), err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM products WHERE id = ?`), productID)
	if err != nil {
		return false, wrapDBError(fmt.Sprintf("delete product %d", productID), err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}
	if err := tx.Commit(); err != nil {
		return false, wrapDBError(fmt.Sprintf("commit delete product %d", productID), err)
	}
	return true, nil
}

// SearchProducts filters the catalog by free text, category, brand and
// current price range, newest listings first.
func (s *Store) SearchProducts(ctx context.Context, f model.SearchFilter) ([]model.Product, error) {
	where := `1 = 1`
	args := []any{}

	if q := strings.TrimSpace(f.Text); q != "" {
		pattern := likePattern(q)
		where += ` AND (LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'` +
			` OR LOWER(brand) LIKE ? ESCAPE '\' OR LOWER(model) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}
	if f.Category != "" {
		where += ` AND LOWER(category) = ?`
		args = append(args, strings.ToLower(f.Category))
	}
	if f.Brand != "" {
		where += ` AND LOWER(brand) = ?`
		args = append(args, strings.ToLower(f.Brand))
	}
	if f.MinPrice != nil {
		where += ` AND current_bid >= ?`
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where += ` AND current_bid <= ?`
		args = append(args, *f.MaxPrice)
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	out := []model.Product{}
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, wrapDBError("search products", err)
	}
	return out, nil
}

// likePattern lowercases the query and escapes LIKE wildcards
func likePattern(q string) string {
	q = strings.ToLower(q)
	q = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + q + "%"
}
