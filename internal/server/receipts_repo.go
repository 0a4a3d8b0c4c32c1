package server

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/veritymkt/verity/internal/services"
)

type receiptRow struct {
	ID           string `json:"id"`
	Buyer        string `json:"buyer"`
	Seller       string `json:"seller"`
	Asset        string `json:"asset"`
	Price        uint64 `json:"price"`
	Fee          uint64 `json:"fee"`
	Royalty      uint64 `json:"royalty"`
	SellerAmount uint64 `json:"seller_amount"`
	CreatedAt    string `json:"created_at"`
}

func (s *Server) insertReceipt(ctx context.Context, rc *services.SaleReceipt) (receiptRow, error) {
	row := receiptRow{
		ID:           uuid.NewString(),
		Buyer:        rc.Buyer.Hex(),
		Seller:       rc.Seller.Hex(),
		Asset:        rc.Asset.Hex(),
		Price:        rc.Price,
		Fee:          rc.Fee,
		Royalty:      rc.Royalty,
		SellerAmount: rc.SellerAmount,
		CreatedAt:    rc.Time.UTC().Format(time.RFC3339),
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sale_receipts (id, buyer, seller, asset, price, fee, royalty, seller_amount, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Buyer, row.Seller, row.Asset,
		row.Price, row.Fee, row.Royalty, row.SellerAmount, row.CreatedAt,
	)
	return row, err
}

// listReceipts 按时间倒序返回成交回执；seller/buyer 为空串时不过滤
func (s *Server) listReceipts(ctx context.Context, seller, buyer string, limit int) ([]receiptRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
SELECT id, buyer, seller, asset, price, fee, royalty, seller_amount, created_at
FROM sale_receipts WHERE 1=1`
	args := []any{}
	if seller != "" {
		query += ` AND seller = ?`
		args = append(args, seller)
	}
	if buyer != "" {
		query += ` AND buyer = ?`
		args = append(args, buyer)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []receiptRow{}
	for rows.Next() {
		var r receiptRow
		if err := rows.Scan(
			&r.ID, &r.Buyer, &r.Seller, &r.Asset,
			&r.Price, &r.Fee, &r.Royalty, &r.SellerAmount, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
