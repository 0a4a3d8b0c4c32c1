package server

import (
	"context"
	"fmt"
	"time"
)

func (s *Server) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS sale_receipts (
  id TEXT PRIMARY KEY,
  buyer TEXT NOT NULL,
  seller TEXT NOT NULL,
  asset TEXT NOT NULL,
  price INTEGER NOT NULL,
  fee INTEGER NOT NULL,
  royalty INTEGER NOT NULL,
  seller_amount INTEGER NOT NULL,
  created_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_sale_receipts_seller ON sale_receipts(seller, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_sale_receipts_buyer ON sale_receipts(buyer, created_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
