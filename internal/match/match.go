// Package match compares a user query against stored signatures and grades
// each candidate PERFECT, PARTIAL or NONE. The grade decides which price
// pool a sale contributes to; the attached diffs feed the recommender's
// ranking score.
package match

import (
	"strconv"
	"strings"

	"github.com/skylens/auction-intel/internal/catalog"
	"github.com/skylens/auction-intel/internal/signature"
	"github.com/skylens/auction-intel/internal/textnorm"
)

// Quality is the three-state match outcome.
type Quality int

const (
	None Quality = iota
	Partial
	Perfect
)

func (q Quality) String() string {
	switch q {
	case Perfect:
		return "PERFECT"
	case Partial:
		return "PARTIAL"
	}
	return "NONE"
}

// Parsed is a signature exploded into its feature and enchantment tokens.
type Parsed struct {
	Features map[string]string
	Enchants map[string]int
}

// ParseSignature splits a stored signature back into tokens. Duplicate
// enchant tokens keep the highest level; malformed tokens are skipped.
func ParseSignature(sig string) Parsed {
	p := Parsed{
		Features: map[string]string{},
		Enchants: map[string]int{},
	}
	if sig == "" {
		return p
	}
	for _, tok := range strings.Split(sig, "|") {
		key, value, ok := strings.Cut(tok, ":")
		if !ok || key == "" {
			continue
		}
		if signature.IsReservedKey(key) {
			p.Features[key] = value
			continue
		}
		lvl, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		if lvl > p.Enchants[key] {
			p.Enchants[key] = lvl
		}
	}
	return p
}

// Stars10 reads the combined star count from a parsed signature.
func (p Parsed) Stars10() int {
	n, _ := strconv.Atoi(p.Features["stars10"])
	return n
}

// Filters is the bundle of hard constraints a query may carry. Zero values
// (and the literal "none") mean unconstrained.
type Filters struct {
	Tier         string
	WitherImpact bool
	Dye          string
	Skin         string
	PetSkin      string
	MinPetLevel  int
	PetItem      string
}

// Query is a complete match request.
type Query struct {
	Stars10  int
	Enchants map[string]int
	Filters  Filters
}

// normalized returns the query with every filter value in canonical form.
func (q Query) normalized() Query {
	q.Filters.Tier = noneToEmpty(strings.ToLower(strings.TrimSpace(q.Filters.Tier)))
	q.Filters.Dye = noneToEmpty(textnorm.NormKey(q.Filters.Dye))
	q.Filters.Skin = noneToEmpty(textnorm.NormKey(q.Filters.Skin))
	q.Filters.PetSkin = noneToEmpty(textnorm.NormKey(q.Filters.PetSkin))
	q.Filters.PetItem = noneToEmpty(textnorm.UnderscoreKey(q.Filters.PetItem))

	ench := make(map[string]int, len(q.Enchants))
	for name, lvl := range q.Enchants {
		key := textnorm.NormalizeEnchantKey(name)
		if key != "" && lvl > ench[key] {
			ench[key] = lvl
		}
	}
	q.Enchants = ench
	return q
}

func noneToEmpty(s string) string {
	if s == "none" {
		return ""
	}
	return s
}

// Empty reports whether the query constrains anything at all.
func (q Query) Empty() bool {
	f := q.Filters
	return q.Stars10 == 0 && len(q.Enchants) == 0 &&
		f.Tier == "" && !f.WitherImpact && f.Dye == "" && f.Skin == "" &&
		f.PetSkin == "" && f.MinPetLevel == 0 && f.PetItem == ""
}

// Result carries the grade plus the per-dimension distances used for
// ranking. EnchDiffs has one entry per requested enchantment.
type Result struct {
	Quality   Quality
	StarsDiff int
	EnchDiffs map[string]int
}

// Evaluate grades one candidate signature against the query.
func Evaluate(q Query, sig string) Result {
	q = q.normalized()

	// A signature-less candidate matches only an unconstrained query.
	if sig == "" {
		if q.Empty() {
			return Result{Quality: Perfect, EnchDiffs: map[string]int{}}
		}
		return Result{Quality: None}
	}

	cand := ParseSignature(sig)
	if !passFilters(q.Filters, cand) {
		return Result{Quality: None}
	}

	partial := false
	res := Result{EnchDiffs: map[string]int{}}

	if q.Stars10 > 0 {
		diff := abs(cand.Stars10() - q.Stars10)
		res.StarsDiff = diff
		switch {
		case diff >= 2:
			return Result{Quality: None}
		case diff == 1:
			partial = true
		}
	}

	for name, want := range q.Enchants {
		have := cand.Enchants[name]
		if have == 0 {
			return Result{Quality: None}
		}
		diff := enchantDiff(name, have, want)
		res.EnchDiffs[name] = diff
		switch {
		case diff >= 2:
			return Result{Quality: None}
		case diff == 1:
			partial = true
		}
	}

	if partial {
		res.Quality = Partial
	} else {
		res.Quality = Perfect
	}
	return res
}

// enchantDiff is the distance between a candidate and requested enchant:
// the larger of the raw level gap and the tier-bucket gap.
func enchantDiff(name string, have, want int) int {
	levelDiff := abs(have - want)
	bucketDiff := abs(int(catalog.TierBucket(name, have)) - int(catalog.TierBucket(name, want)))
	return max(levelDiff, bucketDiff)
}

func passFilters(f Filters, cand Parsed) bool {
	if f.Tier != "" && cand.Features["tier"] != f.Tier {
		return false
	}
	if f.WitherImpact && cand.Features["wither_impact"] != "1" {
		return false
	}
	if f.Dye != "" && cand.Features["dye"] != f.Dye {
		return false
	}
	if f.Skin != "" && cand.Features["skin"] != f.Skin {
		return false
	}
	if f.PetSkin != "" && cand.Features["petskin"] != f.PetSkin {
		return false
	}
	if f.PetItem != "" && cand.Features["pet_item"] != f.PetItem {
		return false
	}
	if f.MinPetLevel > 0 {
		lvl, _ := strconv.Atoi(cand.Features["pet_level"])
		if lvl < f.MinPetLevel {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
