package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"agentbay/internal/biddingerrors"
	model "agentbay/internal/models"

	"github.com/jmoiron/sqlx"
)

const productColumns = `id, title, description, condition, category, brand, model, tags,
  suggested_price, current_bid, reserve_price, bid_count, confidence_score, image_url,
  auction_status, created_at, updated_at`

const bidColumns = `id, bid_id, product_id, user_id, amount, status, is_auto_bid, max_auto_bid, created_at`

// highest eligible bid first; equal amounts go to the earliest bid
const rankOrder = `amount DESC, created_at ASC, id ASC`

// RunInTx runs fn inside a single database transaction. The transaction is
// rolled back when fn returns an error or the context ends before commit.
func (s *Store) RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapDBError("begin transaction", err)
	}

	if err := fn(&ledgerTx{tx: tx, store: s}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapDBError("commit transaction", err)
	}
	return nil
}

// AppendBid records a bid in its own transaction
func (s *Store) AppendBid(ctx context.Context, bid model.Bid) (model.Bid, error) {
	var out model.Bid
	err := s.RunInTx(ctx, func(tx LedgerTx) error {
		exists, err := tx.BidExists(ctx, bid.BidID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("append bid %s: %w", bid.BidID, biddingerrors.ErrDuplicateBid)
		}
		out, err = tx.AppendBid(ctx, bid)
		return err
	})
	return out, err
}

// GetProduct returns a product by id
func (s *Store) GetProduct(ctx context.Context, productID int64) (model.Product, error) {
	var p model.Product
	err := s.db.GetContext(ctx, &p, s.db.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), productID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, fmt.Errorf("get product %d: %w", productID, biddingerrors.ErrProductNotFound)
	}
	if err != nil {
		return model.Product{}, wrapDBError(fmt.Sprintf("get product %d", productID), err)
	}
	return p, nil
}

// GetBidsByProduct lists a product's bids by amount (highest first) or by time (newest first)
func (s *Store) GetBidsByProduct(ctx context.Context, productID int64, order model.BidOrder, limit int) ([]model.Bid, error) {
	orderBy := rankOrder
	if order == model.OrderByTime {
		orderBy = `created_at DESC, id DESC`
	}

	bids := []model.Bid{}
	err := s.db.SelectContext(ctx, &bids, s.db.Rebind(`
		SELECT `+bidColumns+`
		FROM bids
		WHERE product_id = ?
		ORDER BY `+orderBy+`
		LIMIT ?`), productID, limit)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get bids for product %d", productID), err)
	}
	return bids, nil
}

// GetBidsByUser lists a user's bids, newest first
func (s *Store) GetBidsByUser(ctx context.Context, userID string, activeOnly bool, limit int) ([]model.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE user_id = ?`
	args := []any{userID}
	if activeOnly {
		in, inArgs, err := sqlx.In(` AND status IN (?)`, statusArgs(model.EligibleStatuses))
		if err != nil {
			return nil, fmt.Errorf("get bids for user %s: %w", userID, err)
		}
		query += in
		args = append(args, inArgs...)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	bids := []model.Bid{}
	if err := s.db.SelectContext(ctx, &bids, s.db.Rebind(query), args...); err != nil {
		return nil, wrapDBError(fmt.Sprintf("get bids for user %s", userID), err)
	}
	return bids, nil
}

// GetHighestActiveBid returns the eligible bid with the highest amount,
// the earliest one winning ties.
func (s *Store) GetHighestActiveBid(ctx context.Context, productID int64) (model.Bid, error) {
	query, args, err := sqlx.In(`
		SELECT `+bidColumns+`
		FROM bids
		WHERE product_id = ? AND status IN (?)
		ORDER BY `+rankOrder+`
		LIMIT 1`, productID, statusArgs(model.EligibleStatuses))
	if err != nil {
		return model.Bid{}, fmt.Errorf("get highest bid for product %d: %w", productID, err)
	}

	var bid model.Bid
	err = s.db.GetContext(ctx, &bid, s.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("get highest bid for product %d: %w", productID, biddingerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, wrapDBError(fmt.Sprintf("get highest bid for product %d", productID), err)
	}
	return bid, nil
}

// GetBidByBidID looks a bid up by its idempotency token
func (s *Store) GetBidByBidID(ctx context.Context, bidID string) (model.Bid, error) {
	var bid model.Bid
	err := s.db.GetContext(ctx, &bid, s.db.Rebind(`SELECT `+bidColumns+` FROM bids WHERE bid_id = ?`), bidID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("get bid %s: %w", bidID, biddingerrors.ErrBidNotFound)
	}
	if err != nil {
		return model.Bid{}, wrapDBError(fmt.Sprintf("get bid %s", bidID), err)
	}
	return bid, nil
}

// GetAutoBids returns the proxy-bid declarations on a product, oldest first
func (s *Store) GetAutoBids(ctx context.Context, productID int64) ([]model.Bid, error) {
	bids := []model.Bid{}
	err := s.db.SelectContext(ctx, &bids, s.db.Rebind(`
		SELECT `+bidColumns+`
		FROM bids
		WHERE product_id = ? AND is_auto_bid = ? AND max_auto_bid IS NOT NULL
		ORDER BY created_at ASC, id ASC`), productID, true)
	if err != nil {
		return nil, wrapDBError(fmt.Sprintf("get auto bids for product %d", productID), err)
	}
	return bids, nil
}

// CountBidsByProduct returns the number of ledger entries for a product
func (s *Store) CountBidsByProduct(ctx context.Context, productID int64) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM bids WHERE product_id = ?`), productID); err != nil {
		return 0, wrapDBError(fmt.Sprintf("count bids for product %d", productID), err)
	}
	return n, nil
}

// CountBidsByUser returns the number of ledger entries placed by a user
func (s *Store) CountBidsByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM bids WHERE user_id = ?`), userID); err != nil {
		return 0, wrapDBError(fmt.Sprintf("count bids for user %s", userID), err)
	}
	return n, nil
}

// SetBidStatus moves a single bid to a new status, refusing transitions
// that would let a finished bid compete again. Promotion to winning is
// refused; only the bid transaction and Reconcile crown a winner.
func (s *Store) SetBidStatus(ctx context.Context, bidID string, status model.BidStatus) error {
	if status == model.BidWinning {
		return fmt.Errorf("set status of bid %s to %s: %w", bidID, status, biddingerrors.ErrInvalidTransition)
	}
	return s.RunInTx(ctx, func(tx LedgerTx) error {
		ltx := tx.(*ledgerTx)

		var current model.BidStatus
		err := ltx.tx.GetContext(ctx, &current, ltx.tx.Rebind(`SELECT status FROM bids WHERE bid_id = ?`), bidID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("set status of bid %s: %w", bidID, biddingerrors.ErrBidNotFound)
		}
		if err != nil {
			return wrapDBError(fmt.Sprintf("set status of bid %s", bidID), err)
		}
		if current == status {
			return nil
		}
		if !current.CanTransition(status) {
			return fmt.Errorf("set status of bid %s from %s to %s: %w", bidID, current, status, biddingerrors.ErrInvalidTransition)
		}

		_, err = ltx.tx.ExecContext(ctx, ltx.tx.Rebind(`UPDATE bids SET status = ? WHERE bid_id = ?`), string(status), bidID)
		return wrapDBError(fmt.Sprintf("set status of bid %s", bidID), err)
	})
}

// ledgerTx implements LedgerTx on top of a sqlx transaction
type ledgerTx struct {
	tx    *sqlx.Tx
	store *Store
}

func (t *ledgerTx) LockProduct(ctx context.Context, productID int64) (model.Product, error) {
	var p model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?` + t.store.forUpdate()
	err := t.tx.GetContext(ctx, &p, t.tx.Rebind(query), productID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, fmt.Errorf("lock product %d: %w", productID, biddingerrors.ErrProductNotFound)
	}
	if err != nil {
		return model.Product{}, wrapDBError(fmt.Sprintf("lock product %d", productID), err)
	}
	return p, nil
}

func (t *ledgerTx) BidExists(ctx context.Context, bidID string) (bool, error) {
	var n int
	err := t.tx.GetContext(ctx, &n, t.tx.Rebind(`SELECT COUNT(*) FROM bids WHERE bid_id = ?`), bidID)
	if err != nil {
		return false, wrapDBError(fmt.Sprintf("check bid %s", bidID), err)
	}
	return n > 0, nil
}

func (t *ledgerTx) AppendBid(ctx context.Context, bid model.Bid) (model.Bid, error) {
	if bid.CreatedAt.IsZero() {
		bid.CreatedAt = time.Now().UTC()
	}
	if bid.Status == "" {
		bid.Status = model.BidActive
	}

	err := t.tx.QueryRowxContext(ctx, t.tx.Rebind(`
		INSERT INTO bids(bid_id, product_id, user_id, amount, status, is_auto_bid, max_auto_bid, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		bid.BidID, bid.ProductID, bid.UserID, bid.Amount, string(bid.Status), bid.IsAutoBid, nullFloat(bid.MaxAutoBid), bid.CreatedAt,
	).Scan(&bid.ID)
	if err != nil {
		return model.Bid{}, wrapDBError(fmt.Sprintf("append bid %s for product %d", bid.BidID, bid.ProductID), err)
	}
	return bid, nil
}

func (t *ledgerTx) HighestActiveBid(ctx context.Context, productID int64) (model.Bid, error) {
	query, args, err := sqlx.In(`
		SELECT `+bidColumns+`
		FROM bids
		WHERE product_id = ? AND status IN (?)
		ORDER BY `+rankOrder+`
		LIMIT 1`, productID, statusArgs(model.EligibleStatuses))
	if err != nil {
		return model.Bid{}, fmt.Errorf("highest bid for product %d: %w", productID, err)
	}

	var bid model.Bid
	err = t.tx.GetContext(ctx, &bid, t.tx.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("highest bid for product %d: %w", productID, biddingerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, wrapDBError(fmt.Sprintf("highest bid for product %d", productID), err)
	}
	return bid, nil
}

func (t *ledgerTx) SetStatus(ctx context.Context, id int64, status model.BidStatus) error {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(`UPDATE bids SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return wrapDBError(fmt.Sprintf("set status of bid %d", id), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set status of bid %d: %w", id, biddingerrors.ErrBidNotFound)
	}
	return nil
}

func (t *ledgerTx) SetStatusBulk(ctx context.Context, productID, excludeID int64, from []model.BidStatus, to model.BidStatus) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`
		UPDATE bids SET status = ?
		WHERE product_id = ? AND id <> ? AND status IN (?)`, string(to), productID, excludeID, statusArgs(from))
	if err != nil {
		return 0, fmt.Errorf("cascade status for product %d: %w", productID, err)
	}

	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(query), args...)
	if err != nil {
		return 0, wrapDBError(fmt.Sprintf("cascade status for product %d", productID), err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// UpdateCurrentBid is a compare-and-swap on the product's cached bid
func (t *ledgerTx) UpdateCurrentBid(ctx context.Context, productID int64, expected, amount float64) error {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(`
		UPDATE products
		SET current_bid = ?, bid_count = bid_count + 1, updated_at = ?
		WHERE id = ? AND current_bid = ?`),
		amount, time.Now().UTC(), productID, expected)
	if err != nil {
		return wrapDBError(fmt.Sprintf("update current bid for product %d", productID), err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("update current bid for product %d: %w", productID, ErrStaleCurrentBid)
	}
	return nil
}

func (t *ledgerTx) SetAuctionStatus(ctx context.Context, productID int64, status model.AuctionStatus) error {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(`UPDATE products SET auction_status = ?, updated_at = ? WHERE id = ?`),
		string(status), time.Now().UTC(), productID)
	if err != nil {
		return wrapDBError(fmt.Sprintf("set auction status for product %d", productID), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set auction status for product %d: %w", productID, biddingerrors.ErrProductNotFound)
	}
	return nil
}
