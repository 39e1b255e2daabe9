// Package ingest drives the snapshot pipeline: poll the paginated feed,
// derive item keys and signatures, upsert the live set, retire vanished
// auctions and promote them into the sales history.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/skylens/auction-intel/internal/signature"
	"github.com/skylens/auction-intel/internal/textnorm"
	"github.com/skylens/auction-intel/pkg/models"
)

const (
	// pageCap bounds a snapshot no matter what totalPages claims.
	pageCap = 200
	// interPageDelay keeps the feed's rate limiter happy.
	interPageDelay = 90 * time.Millisecond
	// finalizeBatch / finalizeMaxIters bound one cycle's promotion work.
	finalizeBatch    = 5000
	finalizeMaxIters = 60
	// backfillLimit bounds the per-cycle item_key backfill.
	backfillLimit = 20000
	// transformWorkers is the signature fan-out width.
	transformWorkers = 8
)

// Store is the slice of the database the pipeline writes through.
type Store interface {
	BulkUpsertAuctions(ctx context.Context, rows []models.AuctionRow) (int, error)
	MarkUnseenEnded(ctx context.Context, lastSeenBefore, now int64) (int64, error)
	SelectEndedToFinalize(ctx context.Context, beforeTs int64, limit int) ([]models.AuctionRow, error)
	UpsertSale(ctx context.Context, sale models.SaleRow) error
	MarkAuctionFinalized(ctx context.Context, uuid string) error
	SelectSalesMissingItemKey(ctx context.Context, limit int) ([]models.SaleRow, error)
	UpdateSaleItemKey(ctx context.Context, uuid, itemKey string) error
}

// Feed fetches snapshot pages.
type Feed interface {
	FetchPage(ctx context.Context, page int) (*models.FeedPage, error)
}

// Broadcaster pushes cycle and sale events to stream subscribers.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Config tunes one pipeline instance.
type Config struct {
	Interval    time.Duration
	MaxPages    int
	UnseenGrace time.Duration
}

// Loop owns the recurring ingest cycle.
type Loop struct {
	feed  Feed
	store Store
	hub   Broadcaster
	cfg   Config

	running atomic.Bool
	now     func() time.Time
}

// NewLoop wires a pipeline. hub may be nil when no stream is attached.
func NewLoop(feed Feed, store Store, hub Broadcaster, cfg Config) *Loop {
	if cfg.MaxPages <= 0 || cfg.MaxPages > pageCap {
		cfg.MaxPages = pageCap
	}
	return &Loop{feed: feed, store: store, hub: hub, cfg: cfg, now: time.Now}
}

// Run executes cycles on the configured interval until ctx is cancelled.
// The first cycle starts immediately.
func (l *Loop) Run(ctx context.Context) {
	log.Printf("[Ingest] Starting ingest loop (interval %s, max %d pages)", l.cfg.Interval, l.cfg.MaxPages)

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	l.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("[Ingest] Stopping ingest loop...")
			return
		case <-ticker.C:
			l.RunOnce(ctx)
		}
	}
}

// RunOnce executes one full cycle. Overlapping calls are dropped, not
// queued: a cycle slower than the interval must not stack.
func (l *Loop) RunOnce(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		log.Println("[Ingest] Previous cycle still running, skipping tick")
		return
	}
	defer l.running.Store(false)

	cycleID := uuid.NewString()[:8]
	started := l.now()
	summary := models.CycleSummary{CycleID: cycleID, StartedAt: started.UnixMilli()}

	auctions, pages, complete, err := l.fetchSnapshot(ctx, cycleID)
	if err != nil {
		log.Printf("[Ingest] cycle %s: snapshot fetch failed, aborting cycle: %v", cycleID, err)
		return
	}
	summary.Pages = pages

	rows := l.transform(ctx, auctions, started.UnixMilli())
	upserted, err := l.store.BulkUpsertAuctions(ctx, rows)
	if err != nil {
		log.Printf("[Ingest] cycle %s: bulk upsert failed: %v", cycleID, err)
		return
	}
	summary.Upserted = upserted

	// Vanished-uuid detection is only sound against a complete snapshot;
	// a partial fetch would retire auctions that are still live.
	if complete {
		cutoff := started.Add(-l.cfg.UnseenGrace).UnixMilli()
		marked, err := l.store.MarkUnseenEnded(ctx, cutoff, l.now().UnixMilli())
		if err != nil {
			log.Printf("[Ingest] cycle %s: unseen mark failed: %v", cycleID, err)
		} else {
			summary.MarkedEnded = marked
		}
	} else {
		log.Printf("[Ingest] cycle %s: incomplete snapshot, skipping unseen mark", cycleID)
	}

	summary.Finalized = l.finalize(ctx, cycleID)
	summary.Backfilled = l.backfillItemKeys(ctx, cycleID)
	summary.DurationMs = l.now().Sub(started).Milliseconds()

	log.Printf("[Ingest] cycle %s: pages=%d upserted=%d ended=%d finalized=%d backfilled=%d in %dms",
		cycleID, summary.Pages, summary.Upserted, summary.MarkedEnded,
		summary.Finalized, summary.Backfilled, summary.DurationMs)
	l.broadcast(summary)
}

// fetchSnapshot pulls page 0 to learn totalPages, then walks the rest.
// Any page failing after its retry budget fails the whole fetch: a
// partial snapshot must never be written, it would poison the
// unseen-is-ended inference downstream. A capped page count is not a
// failure but marks the snapshot incomplete.
func (l *Loop) fetchSnapshot(ctx context.Context, cycleID string) ([]models.FeedAuction, int, bool, error) {
	first, err := l.feed.FetchPage(ctx, 0)
	if err != nil {
		return nil, 0, false, fmt.Errorf("page 0: %w", err)
	}

	totalPages := first.TotalPages
	complete := true
	if totalPages > l.cfg.MaxPages {
		log.Printf("[Ingest] cycle %s: feed reports %d pages, capping at %d", cycleID, totalPages, l.cfg.MaxPages)
		totalPages = l.cfg.MaxPages
		complete = false
	}

	auctions := append([]models.FeedAuction(nil), first.Auctions...)
	fetched := 1
	for page := 1; page < totalPages; page++ {
		select {
		case <-ctx.Done():
			return nil, 0, false, ctx.Err()
		case <-time.After(interPageDelay):
		}
		fp, err := l.feed.FetchPage(ctx, page)
		if err != nil {
			return nil, 0, false, fmt.Errorf("page %d: %w", page, err)
		}
		auctions = append(auctions, fp.Auctions...)
		fetched++
	}
	return auctions, fetched, complete, nil
}

// transform derives item keys and signatures for a snapshot. Signature
// building is the expensive step, so it fans out across workers and is
// skipped for rows that cannot carry a useful one.
func (l *Loop) transform(ctx context.Context, auctions []models.FeedAuction, nowMs int64) []models.AuctionRow {
	rows := make([]models.AuctionRow, len(auctions))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(transformWorkers)
	for i, fa := range auctions {
		i, fa := i, fa
		g.Go(func() error {
			row := models.AuctionRow{
				UUID:        fa.UUID,
				ItemName:    fa.ItemName,
				ItemKey:     textnorm.CanonicalItemKey(fa.ItemName),
				Bin:         fa.Bin,
				StartTs:     fa.Start,
				EndTs:       fa.End,
				StartingBid: fa.StartingBid,
				HighestBid:  fa.HighestBid,
				Tier:        fa.Tier,
				ItemLore:    fa.ItemLore,
				ItemBytes:   fa.ItemBytes,
				LastSeenTs:  nowMs,
			}
			if wantSignature(fa) {
				row.Signature = signature.Build(signature.Input{
					ItemName:  fa.ItemName,
					Lore:      fa.ItemLore,
					Tier:      fa.Tier,
					ItemBytes: fa.ItemBytes,
				})
			}
			rows[i] = row
			return nil
		})
	}
	_ = g.Wait()
	return rows
}

// wantSignature gates the expensive signature build: BIN listings drive
// the live price scan, payload-bearing rows carry attributes worth
// indexing, and starred names matter even bare.
func wantSignature(fa models.FeedAuction) bool {
	return fa.Bin || fa.ItemLore != "" || fa.ItemBytes != "" || textnorm.HasStarSignal(fa.ItemName)
}

// finalize promotes auctions with a passed end date into the sales
// history in bounded batches. Each row is recorded exactly once: the sale
// upsert is idempotent and the auction is flagged finalized afterwards.
func (l *Loop) finalize(ctx context.Context, cycleID string) int {
	finalized := 0
	now := l.now().UnixMilli()
	for iter := 0; iter < finalizeMaxIters; iter++ {
		batch, err := l.store.SelectEndedToFinalize(ctx, now, finalizeBatch)
		if err != nil {
			log.Printf("[Ingest] cycle %s: finalize select failed: %v", cycleID, err)
			return finalized
		}
		if len(batch) == 0 {
			return finalized
		}
		for _, a := range batch {
			sale := models.SaleRow{
				UUID:       a.UUID,
				ItemName:   a.ItemName,
				ItemKey:    a.ItemKey,
				Bin:        a.Bin,
				FinalPrice: a.FinalPrice(),
				EndedTs:    a.EndTs,
				Tier:       a.Tier,
				Signature:  saleSignature(a),
				ItemLore:   a.ItemLore,
				ItemBytes:  a.ItemBytes,
			}
			if err := l.store.UpsertSale(ctx, sale); err != nil {
				log.Printf("[Ingest] cycle %s: sale upsert for %s failed: %v", cycleID, a.UUID, err)
				continue
			}
			if err := l.store.MarkAuctionFinalized(ctx, a.UUID); err != nil {
				log.Printf("[Ingest] cycle %s: finalize mark for %s failed: %v", cycleID, a.UUID, err)
				continue
			}
			finalized++
			l.broadcast(models.SaleEvent{
				UUID:       sale.UUID,
				ItemName:   sale.ItemName,
				ItemKey:    sale.ItemKey,
				Bin:        sale.Bin,
				FinalPrice: sale.FinalPrice,
				EndedTs:    sale.EndedTs,
			})
		}
		if len(batch) < finalizeBatch {
			return finalized
		}
	}
	log.Printf("[Ingest] cycle %s: finalize iteration cap reached, remainder deferred to next cycle", cycleID)
	return finalized
}

// saleSignature re-derives the signature for rows promoted before a
// snapshot ever carried one; already-signed rows keep their value.
func saleSignature(a models.AuctionRow) string {
	if a.Signature != "" {
		return a.Signature
	}
	if a.ItemLore == "" && a.ItemBytes == "" && !textnorm.HasStarSignal(a.ItemName) {
		return ""
	}
	return signature.Build(signature.Input{
		ItemName:  a.ItemName,
		Lore:      a.ItemLore,
		Tier:      a.Tier,
		ItemBytes: a.ItemBytes,
	})
}

// backfillItemKeys fills item_key on sales rows written before key
// derivation existed (or whose derivation since changed).
func (l *Loop) backfillItemKeys(ctx context.Context, cycleID string) int {
	batch, err := l.store.SelectSalesMissingItemKey(ctx, backfillLimit)
	if err != nil {
		log.Printf("[Ingest] cycle %s: backfill select failed: %v", cycleID, err)
		return 0
	}
	filled := 0
	for _, s := range batch {
		key := textnorm.CanonicalItemKey(s.ItemName)
		if key == "" {
			continue
		}
		if err := l.store.UpdateSaleItemKey(ctx, s.UUID, key); err != nil {
			log.Printf("[Ingest] cycle %s: backfill update for %s failed: %v", cycleID, s.UUID, err)
			continue
		}
		filled++
	}
	return filled
}

// streamEvent is the envelope pushed to websocket subscribers.
type streamEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (l *Loop) broadcast(payload any) {
	if l.hub == nil {
		return
	}
	ev := streamEvent{Data: payload}
	switch payload.(type) {
	case models.CycleSummary:
		ev.Type = "cycle"
	case models.SaleEvent:
		ev.Type = "sale"
	default:
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	l.hub.Broadcast(b)
}
