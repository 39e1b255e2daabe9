// Package signature derives the canonical content fingerprint of an
// auction: an ordered, pipe-delimited token string encoding tier, stars,
// ability flags, pet modifiers, cosmetics and enchantments. The signature
// is what the sales index and the matcher operate on, so building it must
// be deterministic end to end.
package signature

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/skylens/auction-intel/internal/nbtparse"
	"github.com/skylens/auction-intel/internal/textnorm"
)

// Input carries the four upstream fields a signature derives from.
type Input struct {
	ItemName  string
	Lore      string
	Tier      string
	ItemBytes string
}

// reservedKeys are the feature token names; enchantment names must never
// collide with them (colliding enchants get an "ench_" prefix).
var reservedKeys = map[string]bool{
	"tier": true, "dstars": true, "mstars": true, "stars10": true,
	"wither_impact": true, "pet_level": true, "pet_item": true,
	"dye": true, "skin": true, "petskin": true,
}

// IsReservedKey reports whether k is a feature token rather than an
// enchantment token.
func IsReservedKey(k string) bool {
	return reservedKeys[k]
}

// witherBlades are the only items whose scroll set can grant the
// wither-impact ability.
var witherBlades = map[string]bool{
	"hyperion": true, "astraea": true, "scylla": true, "valkyrie": true,
}

var requiredScrolls = []string{
	"implosion_scroll", "shadow_warp_scroll", "wither_shield_scroll",
}

// Build derives the signature for one auction. An input with nothing to
// encode yields the empty string.
func Build(in Input) string {
	extra := nbtparse.Decode(in.ItemBytes)
	itemKey := textnorm.CanonicalItemKey(in.ItemName)

	dstars, mstars := resolveStars(extra, in.ItemName, in.Lore)
	enchants := collectEnchants(extra)

	var tokens []string
	emit := func(key, value string) {
		tokens = append(tokens, key+":"+value)
	}
	emitInt := func(key string, v int) {
		if v > 0 {
			emit(key, strconv.Itoa(v))
		}
	}

	if tier := strings.ToLower(strings.TrimSpace(in.Tier)); tier != "" {
		emit("tier", tier)
	}
	emitInt("dstars", dstars)
	emitInt("mstars", mstars)
	emitInt("stars10", dstars+mstars)
	if witherImpact(itemKey, in.Lore, extra) {
		emit("wither_impact", "1")
	}
	emitInt("pet_level", resolvePetLevel(extra, in.ItemName))
	for _, c := range []struct {
		key   string
		value string
	}{
		{"dye", cosmetic(extra, "dye_item")},
		{"skin", cosmetic(extra, "skin")},
		{"petskin", cosmetic(extra, "petSkin", "pet_skin")},
	} {
		if c.value != "" {
			emit(c.key, c.value)
		}
	}
	if item := resolvePetItem(extra, in.Lore); item != "" {
		emit("pet_item", item)
	}

	names := make([]string, 0, len(enchants))
	for name := range enchants {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		emit(name, strconv.Itoa(enchants[name]))
	}

	return strings.Join(tokens, "|")
}

// collectEnchants merges extra.enchantments with extra.ultimate_enchant
// under the max-level-wins rule, keys normalized.
func collectEnchants(extra nbtparse.Tree) map[string]int {
	out := map[string]int{}
	put := func(name string, level int64) {
		key := textnorm.NormalizeEnchantKey(name)
		if key == "" || level <= 0 {
			return
		}
		if reservedKeys[key] {
			key = "ench_" + key
		}
		if int(level) > out[key] {
			out[key] = int(level)
		}
	}

	for name, v := range nbtparse.Map(extra, "enchantments") {
		if lvl, ok := nbtparse.AsInt(v); ok {
			put(name, lvl)
		}
	}

	switch ult := extra["ultimate_enchant"].(type) {
	case string:
		// NAME_LEVEL form, e.g. "SOUL_EATER_3".
		if i := strings.LastIndex(ult, "_"); i > 0 {
			if lvl, err := strconv.ParseInt(ult[i+1:], 10, 64); err == nil {
				put(ult[:i], lvl)
			}
		}
	case nbtparse.Tree:
		name := nbtparse.Str(ult, "enchant", "enchantment", "id")
		lvl := nbtparse.Int(ult, "level", "lvl", "tier")
		put(name, lvl)
	}

	return out
}

// witherImpact is true only for the four blades, granted either by the lore
// text or by the full three-scroll set in any scroll-named attribute.
func witherImpact(itemKey, lore string, extra nbtparse.Tree) bool {
	if !witherBlades[itemKey] {
		return false
	}
	if strings.Contains(strings.ToLower(lore), "wither impact") {
		return true
	}

	have := map[string]bool{}
	for key, v := range extra {
		if !strings.Contains(strings.ToLower(key), "scroll") {
			continue
		}
		gatherStrings(v, have)
	}
	for _, want := range requiredScrolls {
		if !have[want] {
			return false
		}
	}
	return true
}

func gatherStrings(v any, into map[string]bool) {
	switch x := v.(type) {
	case string:
		into[strings.ToLower(x)] = true
	case []any:
		for _, e := range x {
			gatherStrings(e, into)
		}
	case nbtparse.Tree:
		for _, e := range x {
			gatherStrings(e, into)
		}
	}
}

var petLevelPrefix = regexp.MustCompile(`(?i)^\s*\[?\s*(?:lvl|lv|level)\s*\.?\s*(\d+)`)

// resolvePetLevel prefers the petInfo JSON blob, falling back to the
// display-name prefix. Out-of-range values are ignored.
func resolvePetLevel(extra nbtparse.Tree, itemName string) int {
	if blob := nbtparse.Str(extra, "petInfo"); blob != "" {
		var info map[string]any
		if err := json.Unmarshal([]byte(blob), &info); err == nil {
			if lvl, ok := asJSONInt(info["level"]); ok && lvl >= 1 && lvl <= 200 {
				return lvl
			}
		}
	}

	name := textnorm.StripColorEscapes(textnorm.NormalizeWeirdDigits(itemName))
	if m := petLevelPrefix.FindStringSubmatch(name); m != nil {
		if lvl, err := strconv.Atoi(m[1]); err == nil && lvl >= 1 && lvl <= 200 {
			return lvl
		}
	}
	return 0
}

func asJSONInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// cosmetic normalizes a cosmetic attribute; empty and "none" vanish.
func cosmetic(extra nbtparse.Tree, keys ...string) string {
	v := textnorm.NormKey(nbtparse.Str(extra, keys...))
	if v == "" || v == "none" {
		return ""
	}
	return v
}

var petItemLine = regexp.MustCompile(`(?i)^(?:held item|pet item)\s*[: ]\s*(.+)$`)

// resolvePetItem reads the held-item attribute under any of its historical
// key spellings, falling back to the lore line.
func resolvePetItem(extra nbtparse.Tree, lore string) string {
	raw := nbtparse.Str(extra,
		"petItem", "pet_item", "heldItem", "held_item", "petHeldItem", "pet_held_item")
	if raw == "" {
		for _, line := range strings.Split(lore, "\n") {
			line = strings.TrimSpace(textnorm.StripColorEscapes(line))
			if m := petItemLine.FindStringSubmatch(line); m != nil {
				raw = m[1]
				break
			}
		}
	}
	key := textnorm.UnderscoreKey(raw)
	if key == "none" {
		return ""
	}
	return key
}
