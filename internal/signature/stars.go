package signature

import (
	"log"

	"github.com/skylens/auction-intel/internal/nbtparse"
	"github.com/skylens/auction-intel/internal/textnorm"
)

// resolveStars derives (dungeon stars, master stars) from the attribute
// payload, falling back to display text. The priority order encodes the
// accumulated reverse-engineering of the upstream dungeon_item_level /
// upgrade_level semantics; change it and historical signatures drift.
func resolveStars(extra nbtparse.Tree, itemName, lore string) (int, int) {
	d := clamp(int(nbtparse.Int(extra, "dungeon_item_level")), 0, 10)
	u := clamp(int(nbtparse.Int(extra, "upgrade_level")), 0, 10)

	dstars, mstars := 0, 0
	switch {
	case d > 5:
		// Total packed into the dungeon field.
		dstars, mstars = 5, d-5
	case u > 5:
		dstars, mstars = 5, u-5
	case d > 0 && u > 0:
		dstars, mstars = clamp(d, 0, 5), clamp(u, 0, 5)
	case d > 0:
		dstars = d
	case u > 0:
		// Ambiguous upstream encoding: u in [1,5] with no dungeon level can
		// mean either base or master stars. The rendered text decides.
		total := textStarsTotal(itemName, lore)
		if total >= 6 {
			log.Printf("[Signature] upgrade_level=%d read as master stars (text total %d) for %q", u, total, itemName)
			dstars, mstars = 5, u
		} else {
			dstars = u
		}
	default:
		total := textStarsTotal(itemName, lore)
		dstars = min(total, 5)
		mstars = max(0, total-5)
	}

	if mstars > 0 && dstars != 5 {
		dstars = 5
	}
	return dstars, mstars
}

func textStarsTotal(itemName, lore string) int {
	return max(Stars10FromText(itemName), Stars10FromText(lore))
}

// separator characters allowed between star glyphs and around the
// master-star suffix token.
func isStarSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', ',', '.', ':', ';', '!', '?', '\'', '"',
		'-', '_', '(', ')', '[', ']', '+', '|', '/':
		return true
	}
	return false
}

// Stars10FromText extracts a 0-10 star total from rendered text. It scans
// the last 80 characters for the final star cluster; a full 5-cluster
// followed by a digit 1-5 or Roman numeral I-V means that many master
// stars on top.
func Stars10FromText(s string) int {
	s = textnorm.StripColorEscapes(textnorm.NormalizeWeirdDigits(s))
	runes := []rune(s)
	if len(runes) > 80 {
		runes = runes[len(runes)-80:]
	}

	last := -1
	for i := len(runes) - 1; i >= 0; i-- {
		if textnorm.IsStarGlyph(runes[i]) {
			last = i
			break
		}
	}
	if last < 0 {
		return 0
	}

	count := 1
	budget := 12
	for i := last - 1; count < 5 && i >= 0; i-- {
		r := runes[i]
		if textnorm.IsStarGlyph(r) {
			count++
			continue
		}
		if isStarSeparator(r) && budget > 0 {
			budget--
			continue
		}
		break
	}
	if count < 5 {
		return count
	}

	// First token after the cluster.
	j := last + 1
	for j < len(runes) && isStarSeparator(runes[j]) {
		j++
	}
	start := j
	for j < len(runes) && !isStarSeparator(runes[j]) && !textnorm.IsStarGlyph(runes[j]) {
		j++
	}
	tok := string(runes[start:j])
	if len(tok) == 1 && tok[0] >= '1' && tok[0] <= '5' {
		return 5 + int(tok[0]-'0')
	}
	if v, ok := textnorm.ParseRoman(tok); ok && v <= 5 {
		return 5 + v
	}
	return 5
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
