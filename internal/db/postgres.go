// Package db persists auctions and sales in PostgreSQL and serves the
// query side of the recommender and the API.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skylens/auction-intel/pkg/models"
)

// schemaSQL is compiled into the binary at build time so schema init works
// inside runtime images that do not carry the .sql file.
//
//go:embed schema.sql
var schemaSQL string

type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for Auction Intelligence Engine")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema executes the embedded schema.sql DDL statements.
func (s *PostgresStore) InitSchema() error {
	_, err := s.pool.Exec(context.Background(), schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("Auction intelligence schema initialized")
	return nil
}

// GetPool exposes the connection pool for subsystems that need raw access.
func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}

// upsertAuctionSQL folds a fresh snapshot row into the live table. The
// signature CASE mirrors MergeSignature in merge.go: keep the stored
// signature unless the incoming one is strictly more informative. Lore and
// bytes only ever upgrade from empty, never downgrade to it.
const upsertAuctionSQL = `
	INSERT INTO auctions
		(uuid, item_name, item_key, bin, start_ts, end_ts, starting_bid,
		 highest_bid, tier, item_lore, item_bytes, last_seen_ts, signature, is_ended)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, FALSE)
	ON CONFLICT (uuid) DO UPDATE SET
		item_name    = EXCLUDED.item_name,
		item_key     = EXCLUDED.item_key,
		bin          = EXCLUDED.bin,
		start_ts     = EXCLUDED.start_ts,
		end_ts       = EXCLUDED.end_ts,
		starting_bid = EXCLUDED.starting_bid,
		highest_bid  = GREATEST(auctions.highest_bid, EXCLUDED.highest_bid),
		tier         = EXCLUDED.tier,
		item_lore    = CASE WHEN EXCLUDED.item_lore = '' THEN auctions.item_lore ELSE EXCLUDED.item_lore END,
		item_bytes   = CASE WHEN EXCLUDED.item_bytes = '' THEN auctions.item_bytes ELSE EXCLUDED.item_bytes END,
		last_seen_ts = EXCLUDED.last_seen_ts,
		signature    = CASE
			WHEN auctions.signature = '' THEN EXCLUDED.signature
			WHEN EXCLUDED.signature = '' THEN auctions.signature
			WHEN position('pet_item:' in EXCLUDED.signature) > 0
			     AND position('pet_item:' in auctions.signature) = 0 THEN EXCLUDED.signature
			WHEN COALESCE(substring(auctions.signature from 'stars10:[0-9]+'), '') <>
			     COALESCE(substring(EXCLUDED.signature from 'stars10:[0-9]+'), '') THEN EXCLUDED.signature
			ELSE auctions.signature
		END,
		is_ended     = FALSE;
`

// BulkUpsertAuctions writes one snapshot's worth of rows in a single
// batched transaction and returns the number of rows sent.
func (s *PostgresStore) BulkUpsertAuctions(ctx context.Context, rows []models.AuctionRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(upsertAuctionSQL,
			r.UUID, r.ItemName, r.ItemKey, r.Bin, r.StartTs, r.EndTs,
			r.StartingBid, r.HighestBid, r.Tier, r.ItemLore, r.ItemBytes,
			r.LastSeenTs, r.Signature)
	}

	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("failed to upsert auction batch: %v", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// MarkUnseenEnded flips live rows to ended when they were last sighted
// before lastSeenBefore or their end timestamp has already passed. Returns
// the number of rows flipped.
func (s *PostgresStore) MarkUnseenEnded(ctx context.Context, lastSeenBefore, now int64) (int64, error) {
	sql := `
		UPDATE auctions SET is_ended = TRUE
		WHERE is_ended = FALSE AND (last_seen_ts < $1 OR (end_ts > 0 AND end_ts < $2));
	`
	tag, err := s.pool.Exec(ctx, sql, lastSeenBefore, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SelectEndedToFinalize returns a batch of auctions ripe for promotion
// into the sales table, oldest first: end timestamp passed, no sales row
// cut yet. Rows the unseen-mark pass has not flipped are included so a
// past end date alone is enough to finalize.
func (s *PostgresStore) SelectEndedToFinalize(ctx context.Context, beforeTs int64, limit int) ([]models.AuctionRow, error) {
	sql := `
		SELECT uuid, item_name, item_key, bin, start_ts, end_ts, starting_bid,
		       highest_bid, tier, item_lore, item_bytes, last_seen_ts, signature, is_ended
		FROM auctions
		WHERE finalized = FALSE AND end_ts > 0 AND end_ts <= $1
		ORDER BY end_ts ASC
		LIMIT $2;
	`
	rows, err := s.pool.Query(ctx, sql, beforeTs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuctions(rows)
}

// UpsertSale writes one sales row. On replay the signature follows the
// same merge rule as the auctions upsert (see MergeSignature); every
// other field keeps its first-recorded value.
func (s *PostgresStore) UpsertSale(ctx context.Context, sale models.SaleRow) error {
	sql := `
		INSERT INTO sales
			(uuid, item_name, item_key, bin, final_price, ended_ts, tier,
			 signature, item_lore, item_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (uuid) DO UPDATE SET
			signature = CASE
				WHEN sales.signature = '' THEN EXCLUDED.signature
				WHEN EXCLUDED.signature = '' THEN sales.signature
				WHEN position('pet_item:' in EXCLUDED.signature) > 0
				     AND position('pet_item:' in sales.signature) = 0 THEN EXCLUDED.signature
				WHEN COALESCE(substring(sales.signature from 'stars10:[0-9]+'), '') <>
				     COALESCE(substring(EXCLUDED.signature from 'stars10:[0-9]+'), '') THEN EXCLUDED.signature
				ELSE sales.signature
			END;
	`
	_, err := s.pool.Exec(ctx, sql,
		sale.UUID, sale.ItemName, sale.ItemKey, sale.Bin, sale.FinalPrice,
		sale.EndedTs, sale.Tier, sale.Signature, sale.ItemLore, sale.ItemBytes)
	return err
}

// MarkAuctionFinalized records that a sales row has been cut for the uuid.
// Rows finalized straight off a passed end date get their ended flag set
// here as well.
func (s *PostgresStore) MarkAuctionFinalized(ctx context.Context, uuid string) error {
	_, err := s.pool.Exec(ctx, `UPDATE auctions SET finalized = TRUE, is_ended = TRUE WHERE uuid = $1;`, uuid)
	return err
}

// SelectSalesMissingItemKey returns sales written before item_key
// derivation existed, for the backfill pass.
func (s *PostgresStore) SelectSalesMissingItemKey(ctx context.Context, limit int) ([]models.SaleRow, error) {
	sql := `
		SELECT uuid, item_name, item_key, bin, final_price, ended_ts, tier,
		       signature, item_lore, item_bytes
		FROM sales
		WHERE item_key = ''
		ORDER BY ended_ts DESC
		LIMIT $1;
	`
	rows, err := s.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSales(rows)
}

// UpdateSaleItemKey sets the derived item key on a backfilled sales row.
func (s *PostgresStore) UpdateSaleItemKey(ctx context.Context, uuid, itemKey string) error {
	_, err := s.pool.Exec(ctx, `UPDATE sales SET item_key = $2 WHERE uuid = $1;`, uuid, itemKey)
	return err
}

// RecentSalesByItem returns the sales history for one item key, newest
// first, bounded by sinceTs and limit.
func (s *PostgresStore) RecentSalesByItem(ctx context.Context, itemKey string, sinceTs int64, limit int) ([]models.SaleRow, error) {
	sql := `
		SELECT uuid, item_name, item_key, bin, final_price, ended_ts, tier,
		       signature, item_lore, item_bytes
		FROM sales
		WHERE item_key = $1 AND ended_ts >= $2
		ORDER BY ended_ts DESC
		LIMIT $3;
	`
	rows, err := s.pool.Query(ctx, sql, itemKey, sinceTs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSales(rows)
}

// LiveBinByItem returns live BIN rows for one item key, cheapest first,
// restricted to rows sighted since seenSinceTs.
func (s *PostgresStore) LiveBinByItem(ctx context.Context, itemKey string, seenSinceTs int64, limit int) ([]models.AuctionRow, error) {
	sql := `
		SELECT uuid, item_name, item_key, bin, start_ts, end_ts, starting_bid,
		       highest_bid, tier, item_lore, item_bytes, last_seen_ts, signature, is_ended
		FROM auctions
		WHERE is_ended = FALSE AND bin = TRUE AND item_key = $1 AND last_seen_ts >= $2
		ORDER BY starting_bid ASC
		LIMIT $3;
	`
	rows, err := s.pool.Query(ctx, sql, itemKey, seenSinceTs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuctions(rows)
}

// ItemSuggestion is one known item key with its recorded sale volume.
// Label is the display form; item keys are already human-readable, so it
// mirrors the key.
type ItemSuggestion struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Sales int64  `json:"sales"`
}

// KnownItems returns item keys starting with the given prefix, busiest
// first. An empty prefix lists the busiest items overall.
func (s *PostgresStore) KnownItems(ctx context.Context, prefix string, limit int) ([]ItemSuggestion, error) {
	sql := `
		SELECT item_key, COUNT(*) AS sales
		FROM sales
		WHERE item_key <> '' AND item_key LIKE $1 || '%'
		GROUP BY item_key
		ORDER BY sales DESC, item_key ASC
		LIMIT $2;
	`
	rows, err := s.pool.Query(ctx, sql, prefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ItemSuggestion, 0)
	for rows.Next() {
		var it ItemSuggestion
		if err := rows.Scan(&it.Key, &it.Sales); err != nil {
			return nil, err
		}
		it.Label = it.Key
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanAuctions(rows pgx.Rows) ([]models.AuctionRow, error) {
	out := make([]models.AuctionRow, 0)
	for rows.Next() {
		var a models.AuctionRow
		err := rows.Scan(&a.UUID, &a.ItemName, &a.ItemKey, &a.Bin, &a.StartTs,
			&a.EndTs, &a.StartingBid, &a.HighestBid, &a.Tier, &a.ItemLore,
			&a.ItemBytes, &a.LastSeenTs, &a.Signature, &a.IsEnded)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanSales(rows pgx.Rows) ([]models.SaleRow, error) {
	out := make([]models.SaleRow, 0)
	for rows.Next() {
		var s models.SaleRow
		err := rows.Scan(&s.UUID, &s.ItemName, &s.ItemKey, &s.Bin, &s.FinalPrice,
			&s.EndedTs, &s.Tier, &s.Signature, &s.ItemLore, &s.ItemBytes)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
