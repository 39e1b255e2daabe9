// Package recommend answers pricing queries: it pulls the sales history for
// an item, grades every sale against the request, aggregates the matching
// price pool into a stable median/percentile band, and picks the cheapest
// live BIN listing that satisfies the same constraints.
package recommend

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/skylens/auction-intel/internal/catalog"
	"github.com/skylens/auction-intel/internal/match"
	"github.com/skylens/auction-intel/internal/signature"
	"github.com/skylens/auction-intel/pkg/models"
)

const (
	// salesWindow bounds how far back the price pool reaches.
	salesWindow = 120 * 24 * time.Hour
	// salesLimit caps the per-query history scan.
	salesLimit = 50000
	// liveLimit caps the live lowest-bin scan.
	liveLimit = 6000
	// topExemplars is how many ranked sales the response carries.
	topExemplars = 3
)

// SalesSource is the slice of the store the recommender needs.
type SalesSource interface {
	RecentSalesByItem(ctx context.Context, itemKey string, sinceTs int64, limit int) ([]models.SaleRow, error)
	LiveBinByItem(ctx context.Context, itemKey string, seenSinceTs int64, limit int) ([]models.AuctionRow, error)
}

// EnchantReq is one requested enchantment.
type EnchantReq struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Request is a full recommendation query.
type Request struct {
	ItemKey  string
	Stars10  int
	Enchants []EnchantReq
	Filters  match.Filters
}

// EnchantOut is an enchant as rendered in a response.
type EnchantOut struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Exemplar is one ranked historical sale.
type Exemplar struct {
	UUID        string       `json:"uuid"`
	ItemName    string       `json:"itemName"`
	Price       int64        `json:"price"`
	EndedTs     int64        `json:"endedTs"`
	Bin         bool         `json:"bin"`
	Quality     string       `json:"quality"`
	Score       int          `json:"score"`
	Stars10     int          `json:"stars10"`
	Matched     []EnchantOut `json:"matched"`
	AllEnchants []EnchantOut `json:"allEnchants"`
}

// LiveListing is the cheapest live BIN auction passing the query.
type LiveListing struct {
	UUID       string `json:"uuid"`
	ItemName   string `json:"itemName"`
	Price      int64  `json:"price"`
	Stars10    int    `json:"stars10"`
	Quality    string `json:"quality"`
	LastSeenTs int64  `json:"lastSeenTs"`
}

// Response is the recommendation result. Price fields are nil when no sale
// matched.
type Response struct {
	Recommended *int64       `json:"recommended"`
	RangeLow    *int64       `json:"range_low"`
	RangeHigh   *int64       `json:"range_high"`
	RangeCount  int          `json:"range_count"`
	Top3        []Exemplar   `json:"top3"`
	Live        *LiveListing `json:"live"`
	Note        string       `json:"note,omitempty"`
}

// Engine wires the matcher and the store together.
type Engine struct {
	store       SalesSource
	aliveWindow time.Duration
	now         func() time.Time
}

// New builds an engine. aliveWindow is how recently a live auction must
// have been sighted to count for the lowest-bin scan.
func New(store SalesSource, aliveWindow time.Duration) *Engine {
	return &Engine{store: store, aliveWindow: aliveWindow, now: time.Now}
}

type candidate struct {
	sale  models.SaleRow
	res   match.Result
	score int
}

// Recommend runs the full query.
func (e *Engine) Recommend(ctx context.Context, req Request) (Response, error) {
	if req.ItemKey == "" {
		return Response{Note: "pick an item from suggestions"}, nil
	}

	query := match.Query{
		Stars10:  req.Stars10,
		Enchants: map[string]int{},
		Filters:  req.Filters,
	}
	for _, en := range req.Enchants {
		if en.Level > query.Enchants[en.Name] {
			query.Enchants[en.Name] = en.Level
		}
	}

	now := e.now()
	since := now.Add(-salesWindow).UnixMilli()
	sales, err := e.store.RecentSalesByItem(ctx, req.ItemKey, since, salesLimit)
	if err != nil {
		return Response{}, err
	}

	var perfectPrices, partialPrices []int64
	var candidates []candidate
	for _, sale := range sales {
		if sale.FinalPrice <= 0 {
			continue
		}
		sig := sale.Signature
		if sig == "" && (sale.ItemLore != "" || sale.ItemBytes != "") {
			sig = signature.Build(signature.Input{
				ItemName:  sale.ItemName,
				Lore:      sale.ItemLore,
				Tier:      sale.Tier,
				ItemBytes: sale.ItemBytes,
			})
		}
		res := match.Evaluate(query, sig)
		switch res.Quality {
		case match.Perfect:
			perfectPrices = append(perfectPrices, sale.FinalPrice)
		case match.Partial:
			partialPrices = append(partialPrices, sale.FinalPrice)
		default:
			continue
		}
		sale.Signature = sig
		candidates = append(candidates, candidate{sale: sale, res: res, score: score(res)})
	}

	resp := Response{}
	pool := perfectPrices
	if len(pool) == 0 {
		pool = partialPrices
	}
	if len(pool) > 0 {
		resp.Recommended = int64p(percentile(pool, 50))
		resp.RangeLow = int64p(percentile(pool, 15))
		resp.RangeHigh = int64p(percentile(pool, 85))
		resp.RangeCount = len(pool)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.sale.EndedTs != b.sale.EndedTs {
			return a.sale.EndedTs > b.sale.EndedTs
		}
		return a.sale.FinalPrice < b.sale.FinalPrice
	})
	for i := 0; i < len(candidates) && i < topExemplars; i++ {
		resp.Top3 = append(resp.Top3, exemplar(candidates[i], query))
	}

	live, err := e.liveBest(ctx, req.ItemKey, query, now)
	if err != nil {
		// A failed live scan degrades the answer, it does not void it.
		log.Printf("[Recommender] live scan failed for %q: %v", req.ItemKey, err)
	} else {
		resp.Live = live
	}

	if resp.RangeCount == 0 && resp.Live == nil {
		resp.Note = "no matching sales on record; pick an item from suggestions or relax filters"
	}
	return resp, nil
}

// liveBest scans live BIN listings cheapest-first and returns the first
// one that passes the query.
func (e *Engine) liveBest(ctx context.Context, itemKey string, query match.Query, now time.Time) (*LiveListing, error) {
	seenSince := now.Add(-e.aliveWindow).UnixMilli()
	rows, err := e.store.LiveBinByItem(ctx, itemKey, seenSince, liveLimit)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		sig := row.Signature
		if sig == "" && (row.ItemLore != "" || row.ItemBytes != "") {
			sig = signature.Build(signature.Input{
				ItemName:  row.ItemName,
				Lore:      row.ItemLore,
				Tier:      row.Tier,
				ItemBytes: row.ItemBytes,
			})
		}
		res := match.Evaluate(query, sig)
		if res.Quality == match.None {
			continue
		}
		return &LiveListing{
			UUID:       row.UUID,
			ItemName:   row.ItemName,
			Price:      row.StartingBid,
			Stars10:    match.ParseSignature(sig).Stars10(),
			Quality:    res.Quality.String(),
			LastSeenTs: row.LastSeenTs,
		}, nil
	}
	return nil, nil
}

// score converts match distances into a 0-10 ranking value: two points per
// star of distance, one per enchant tier/level step.
func score(res match.Result) int {
	penalty := 2 * res.StarsDiff
	for _, d := range res.EnchDiffs {
		penalty += d
	}
	if penalty >= 10 {
		return 0
	}
	return 10 - penalty
}

func exemplar(c candidate, query match.Query) Exemplar {
	parsed := match.ParseSignature(c.sale.Signature)

	matched := make([]EnchantOut, 0, len(query.Enchants))
	for name := range query.Enchants {
		if lvl, ok := parsed.Enchants[name]; ok {
			matched = append(matched, EnchantOut{Name: name, Level: lvl})
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		wi := catalog.Weight(matched[i].Name, matched[i].Level)
		wj := catalog.Weight(matched[j].Name, matched[j].Level)
		if wi != wj {
			return wi > wj
		}
		return matched[i].Name < matched[j].Name
	})

	all := make([]EnchantOut, 0, len(parsed.Enchants))
	for name, lvl := range parsed.Enchants {
		all = append(all, EnchantOut{Name: name, Level: lvl})
	}
	sort.Slice(all, func(i, j int) bool {
		bi := catalog.TierBucket(all[i].Name, all[i].Level)
		bj := catalog.TierBucket(all[j].Name, all[j].Level)
		if bi != bj {
			return bi > bj
		}
		return all[i].Name < all[j].Name
	})

	return Exemplar{
		UUID:        c.sale.UUID,
		ItemName:    c.sale.ItemName,
		Price:       c.sale.FinalPrice,
		EndedTs:     c.sale.EndedTs,
		Bin:         c.sale.Bin,
		Quality:     c.res.Quality.String(),
		Score:       c.score,
		Stars10:     parsed.Stars10(),
		Matched:     matched,
		AllEnchants: all,
	}
}

// percentile computes the p-th percentile of prices by linear
// interpolation over the sorted pool.
func percentile(prices []int64, p float64) int64 {
	sorted := make([]int64, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + int64(frac*float64(sorted[hi]-sorted[lo]))
}

func int64p(v int64) *int64 {
	return &v
}
