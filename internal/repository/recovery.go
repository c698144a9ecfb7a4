package repository

import (
	"context"
	"fmt"

	model "agentbay/internal/models"
	"agentbay/utils"

	"github.com/jmoiron/sqlx"
)

// Reconcile repairs open auctions whose ledger and cached bid disagree.
// For each open product the highest eligible bid becomes the only winning
// bid, every other eligible bid is outbid, and current_bid / bid_count are
// re-synced from the ledger.
func (s *Store) Reconcile(ctx context.Context) (model.ReconcileReport, error) {
	var report model.ReconcileReport

	var ids []int64
	err := s.db.SelectContext(ctx, &ids, s.db.Rebind(`SELECT id FROM products WHERE auction_status = ? ORDER BY id`), string(model.AuctionOpen))
	if err != nil {
		return report, wrapDBError("reconcile: list open products", err)
	}

	for _, id := range ids {
		report.ProductsChecked++
		if err := s.reconcileProduct(ctx, id, &report); err != nil {
			return report, fmt.Errorf("reconcile product %d: %w", id, err)
		}
	}

	utils.Info("reconcile finished", map[string]any{
		"products_checked":  report.ProductsChecked,
		"products_repaired": report.ProductsRepaired,
		"bids_promoted":     report.BidsPromoted,
		"bids_demoted":      report.BidsDemoted,
	})
	return report, nil
}

func (s *Store) reconcileProduct(ctx context.Context, productID int64, report *model.ReconcileReport) error {
	return s.RunInTx(ctx, func(tx LedgerTx) error {
		ltx := tx.(*ledgerTx)

		p, err := tx.LockProduct(ctx, productID)
		if err != nil {
			return err
		}

		var eligible []model.Bid
		query, args, err := sqlx.In(`
			SELECT `+bidColumns+`
			FROM bids
			WHERE product_id = ? AND status IN (?)
			ORDER BY `+rankOrder, productID, statusArgs(model.EligibleStatuses))
		if err != nil {
			return err
		}
		if err := ltx.tx.SelectContext(ctx, &eligible, ltx.tx.Rebind(query), args...); err != nil {
			return wrapDBError("load eligible bids", err)
		}

		var total int64
		if err := ltx.tx.GetContext(ctx, &total, ltx.tx.Rebind(`SELECT COUNT(*) FROM bids WHERE product_id = ?`), productID); err != nil {
			return wrapDBError("count bids", err)
		}

		repaired := false
		expected := p.CurrentBid
		switch {
		case len(eligible) > 0:
			top := eligible[0]
			expected = top.Amount
			if top.Status != model.BidWinning {
				if err := tx.SetStatus(ctx, top.ID, model.BidWinning); err != nil {
					return err
				}
				report.BidsPromoted++
				repaired = true
			}
			demoted, err := tx.SetStatusBulk(ctx, productID, top.ID, model.EligibleStatuses, model.BidOutbid)
			if err != nil {
				return err
			}
			if demoted > 0 {
				report.BidsDemoted += int(demoted)
				repaired = true
			}
		case total == 0:
			expected = p.SuggestedPrice
		default:
			utils.Warn("reconcile: product has bids but none eligible", map[string]any{
				"product_id": productID,
				"bid_count":  total,
			})
		}

		if p.CurrentBid != expected || p.BidCount != total {
			if _, err := ltx.tx.ExecContext(ctx, ltx.tx.Rebind(`UPDATE products SET current_bid = ?, bid_count = ? WHERE id = ?`),
				expected, total, productID); err != nil {
				return wrapDBError("resync current bid", err)
			}
			repaired = true
		}

		if repaired {
			report.ProductsRepaired++
			utils.Warn("reconcile: repaired product", map[string]any{
				"product_id":  productID,
				"current_bid": expected,
				"bid_count":   total,
			})
		}
		return nil
	})
}
