package models

// FeedAuction is one auction entry exactly as the upstream paginated feed
// serializes it. Timestamps are milliseconds since epoch, prices are whole
// coins. ItemLore and ItemBytes are optional and may be empty.
type FeedAuction struct {
	UUID        string `json:"uuid"`
	ItemName    string `json:"item_name"`
	Bin         bool   `json:"bin"`
	Start       int64  `json:"start"`
	End         int64  `json:"end"`
	StartingBid int64  `json:"starting_bid"`
	HighestBid  int64  `json:"highest_bid"`
	Tier        string `json:"tier,omitempty"`
	ItemLore    string `json:"item_lore,omitempty"`
	ItemBytes   string `json:"item_bytes,omitempty"`
}

// FeedPage is the envelope returned by GET /auctions?page=n.
type FeedPage struct {
	Success    bool          `json:"success"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Auctions   []FeedAuction `json:"auctions"`
}

// AuctionRow is the persisted form of a live auction. Signature is empty
// until the transform step computes one (and may stay empty for rows whose
// payload never parsed). IsEnded flips when the uuid vanishes from a
// complete snapshot or its end timestamp passes.
type AuctionRow struct {
	UUID        string
	ItemName    string
	ItemKey     string
	Bin         bool
	StartTs     int64
	EndTs       int64
	StartingBid int64
	HighestBid  int64
	Tier        string
	ItemLore    string
	ItemBytes   string
	LastSeenTs  int64
	Signature   string
	IsEnded     bool
}

// FinalPrice resolves what the auction would settle for: the highest bid
// when one exists, otherwise the asking price (always the case for BIN).
func (a AuctionRow) FinalPrice() int64 {
	if a.HighestBid > 0 {
		return a.HighestBid
	}
	return a.StartingBid
}

// SaleRow is the append-only historical record produced when an ended
// auction is finalized. Lore and bytes are retained so the signature can be
// re-derived by later engine versions.
type SaleRow struct {
	UUID       string
	ItemName   string
	ItemKey    string
	Bin        bool
	FinalPrice int64
	EndedTs    int64
	Tier       string
	Signature  string
	ItemLore   string
	ItemBytes  string
}

// CycleSummary is broadcast on the websocket stream after each ingest cycle.
type CycleSummary struct {
	CycleID     string `json:"cycleId"`
	Pages       int    `json:"pages"`
	Upserted    int    `json:"upserted"`
	MarkedEnded int64  `json:"markedEnded"`
	Finalized   int    `json:"finalized"`
	Backfilled  int    `json:"backfilled"`
	DurationMs  int64  `json:"durationMs"`
	StartedAt   int64  `json:"startedAt"`
}

// SaleEvent is broadcast when an auction is promoted into the sales table.
type SaleEvent struct {
	UUID       string `json:"uuid"`
	ItemName   string `json:"itemName"`
	ItemKey    string `json:"itemKey"`
	Bin        bool   `json:"bin"`
	FinalPrice int64  `json:"finalPrice"`
	EndedTs    int64  `json:"endedTs"`
}
