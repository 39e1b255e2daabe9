package catalog

import (
	"sort"

	"github.com/skylens/auction-intel/internal/textnorm"
)

// Bucket is the discrete rarity classification for a (name, level) pair.
// Ranked BB < B < A < AA < AAA; MISC sits outside the ranking at -1.
type Bucket int

const (
	BucketMisc Bucket = -1
	BucketBB   Bucket = 0
	BucketB    Bucket = 1
	BucketA    Bucket = 2
	BucketAA   Bucket = 3
	BucketAAA  Bucket = 4
)

func (b Bucket) String() string {
	switch b {
	case BucketBB:
		return "BB"
	case BucketB:
		return "B"
	case BucketA:
		return "A"
	case BucketAA:
		return "AA"
	case BucketAAA:
		return "AAA"
	}
	return "MISC"
}

// bucketRule maps a level threshold to a bucket; the highest threshold not
// exceeding the level wins.
type bucketRule struct {
	minLevel int
	bucket   Bucket
}

// enchantBuckets is the static tier table. Keys are normalized enchant
// names (ultimates carry no "ultimate_" prefix). The ladder reflects how
// the market prices each enchant tier, not in-game obtainability.
var enchantBuckets = map[string][]bucketRule{
	// common weapon lines
	"sharpness":          {{1, BucketBB}, {5, BucketB}, {6, BucketA}, {7, BucketAA}},
	"smite":              {{1, BucketBB}, {5, BucketB}, {6, BucketA}, {7, BucketAA}},
	"bane_of_arthropods": {{1, BucketBB}, {5, BucketB}, {6, BucketA}, {7, BucketAA}},
	"critical":           {{1, BucketBB}, {5, BucketB}, {6, BucketA}, {7, BucketAA}},
	"first_strike":       {{1, BucketBB}, {4, BucketB}, {5, BucketAA}},
	"giant_killer":       {{1, BucketBB}, {5, BucketB}, {6, BucketA}, {7, BucketAA}},
	"ender_slayer":       {{1, BucketBB}, {5, BucketB}, {6, BucketA}, {7, BucketAAA}},
	"execute":            {{1, BucketBB}, {5, BucketB}, {6, BucketAA}},
	"cubism":             {{1, BucketBB}, {5, BucketB}, {6, BucketAA}},
	"lethality":          {{1, BucketBB}, {5, BucketB}, {6, BucketA}},
	"luck":               {{1, BucketBB}, {5, BucketB}, {6, BucketA}, {7, BucketAA}},
	"looting":            {{1, BucketBB}, {4, BucketB}, {5, BucketAA}},
	"scavenger":          {{1, BucketBB}, {4, BucketB}, {5, BucketA}},
	"vampirism":          {{1, BucketBB}, {5, BucketB}, {6, BucketA}},
	"venomous":           {{1, BucketBB}, {5, BucketB}, {6, BucketA}},
	"syphon":             {{1, BucketBB}, {4, BucketB}, {5, BucketA}},
	"thunderlord":        {{1, BucketBB}, {5, BucketB}, {6, BucketA}, {7, BucketAA}},
	"thunderbolt":        {{1, BucketBB}, {5, BucketA}, {6, BucketAA}},
	"vicious":            {{3, BucketB}, {4, BucketA}, {5, BucketAA}},
	"prosecute":          {{1, BucketBB}, {5, BucketB}, {6, BucketA}},
	"triple_strike":      {{1, BucketBB}, {4, BucketB}, {5, BucketA}},
	"life_steal":         {{1, BucketBB}, {4, BucketB}, {5, BucketA}},
	"mana_steal":         {{1, BucketB}, {2, BucketA}, {3, BucketAA}},
	"dragon_hunter":      {{1, BucketA}, {3, BucketAA}, {5, BucketAAA}},
	// bows
	"power":           {{1, BucketBB}, {5, BucketB}, {6, BucketA}, {7, BucketAA}},
	"aiming":          {{1, BucketBB}, {3, BucketB}, {5, BucketA}},
	"infinite_quiver": {{1, BucketBB}, {6, BucketB}, {10, BucketA}},
	"snipe":           {{1, BucketBB}, {3, BucketB}, {4, BucketA}},
	"overload":        {{1, BucketA}, {2, BucketAA}, {5, BucketAAA}},
	"soul_eater":      {{1, BucketA}, {3, BucketAA}, {5, BucketAAA}},
	// armor
	"protection":      {{1, BucketBB}, {5, BucketB}, {6, BucketA}, {7, BucketAA}},
	"growth":          {{1, BucketBB}, {5, BucketB}, {6, BucketA}, {7, BucketAA}},
	"rejuvenate":      {{1, BucketBB}, {4, BucketB}, {5, BucketA}},
	"respite":         {{1, BucketBB}, {4, BucketB}, {5, BucketA}},
	"aqua_affinity":   {{1, BucketBB}},
	"respiration":     {{1, BucketBB}, {3, BucketB}},
	"thorns":          {{1, BucketBB}, {3, BucketB}},
	"sugar_rush":      {{1, BucketBB}, {3, BucketB}},
	"true_protection": {{1, BucketAA}},
	"smarty_pants":    {{1, BucketB}, {4, BucketA}, {5, BucketAA}},
	"ferocious_mana":  {{1, BucketB}, {5, BucketA}, {10, BucketAAA}},
	"hardened_mana":   {{1, BucketB}, {5, BucketA}, {10, BucketAA}},
	"mana_vampire":    {{1, BucketB}, {5, BucketA}, {10, BucketAA}},
	"strong_mana":     {{1, BucketB}, {5, BucketA}, {10, BucketAAA}},
	"big_brain":       {{3, BucketA}, {5, BucketAA}},
	"transylvanian":   {{3, BucketB}, {5, BucketA}},
	// ultimates (normalized without the ultimate_ prefix)
	"one_for_all":     {{1, BucketAAA}},
	"wise":            {{1, BucketB}, {3, BucketA}, {5, BucketAA}},
	"wisdom":          {{1, BucketB}, {3, BucketA}, {5, BucketAA}},
	"legion":          {{1, BucketA}, {3, BucketAA}, {5, BucketAAA}},
	"bank":            {{1, BucketA}, {3, BucketAA}, {5, BucketAAA}},
	"combo":           {{1, BucketA}, {3, BucketAA}, {5, BucketAAA}},
	"swarm":           {{1, BucketA}, {3, BucketAA}, {5, BucketAAA}},
	"last_stand":      {{1, BucketA}, {3, BucketAA}, {5, BucketAAA}},
	"rend":            {{1, BucketA}, {3, BucketAA}, {5, BucketAAA}},
	"no_pain_no_gain": {{1, BucketA}, {3, BucketAA}, {5, BucketAAA}},
	"chimera":         {{1, BucketAAA}},
	"fatal_tempo":     {{1, BucketAAA}},
	"duplex":          {{1, BucketAA}, {3, BucketAAA}},
	"reiterate":       {{1, BucketAA}, {3, BucketAAA}},
	"flash":           {{1, BucketA}, {3, BucketAA}, {5, BucketAAA}},
	"inferno":         {{1, BucketAA}, {3, BucketAAA}},
	"refrigerate":     {{1, BucketA}, {3, BucketAA}},
	"habanero_tactics": {{1, BucketA}, {3, BucketAA}},
	// fishing / tools
	"expertise":       {{1, BucketB}, {5, BucketA}, {10, BucketAA}},
	"efficiency":      {{1, BucketBB}, {5, BucketB}, {6, BucketA}},
	"fortune":         {{1, BucketBB}, {3, BucketB}, {4, BucketA}},
	"pristine":        {{1, BucketB}, {3, BucketA}, {5, BucketAA}},
	"compact":         {{1, BucketB}, {5, BucketA}, {10, BucketAA}},
	"cultivating":     {{1, BucketB}, {5, BucketA}, {10, BucketAA}},
	"champion":        {{1, BucketB}, {5, BucketA}, {10, BucketAA}},
	"hecatomb":        {{1, BucketA}, {5, BucketAA}, {10, BucketAAA}},
	"divine_gift":     {{1, BucketAA}, {3, BucketAAA}},
	"toxophilite":     {{1, BucketA}, {5, BucketAA}},
}

// maxLevels lists the known ceiling per enchant for autocompletion; enchants
// absent here still match, the list only drives suggestions.
var maxLevels = map[string]int{
	"sharpness": 7, "smite": 7, "bane_of_arthropods": 7, "critical": 7,
	"first_strike": 5, "giant_killer": 7, "ender_slayer": 7, "execute": 6,
	"cubism": 6, "lethality": 6, "luck": 7, "looting": 5, "scavenger": 5,
	"vampirism": 6, "venomous": 6, "syphon": 5, "thunderlord": 7,
	"thunderbolt": 6, "vicious": 5, "prosecute": 6, "triple_strike": 5,
	"life_steal": 5, "mana_steal": 3, "dragon_hunter": 5, "power": 7,
	"aiming": 5, "infinite_quiver": 10, "snipe": 4, "overload": 5,
	"soul_eater": 5, "protection": 7, "growth": 7, "rejuvenate": 5,
	"respite": 5, "aqua_affinity": 1, "respiration": 3, "thorns": 3,
	"sugar_rush": 3, "true_protection": 1, "smarty_pants": 5,
	"ferocious_mana": 10, "hardened_mana": 10, "mana_vampire": 10,
	"strong_mana": 10, "big_brain": 5, "transylvanian": 5,
	"one_for_all": 1, "wise": 5, "wisdom": 5, "legion": 5, "bank": 5,
	"combo": 5, "swarm": 5, "last_stand": 5, "rend": 5,
	"no_pain_no_gain": 5, "chimera": 5, "fatal_tempo": 5, "duplex": 5,
	"reiterate": 5, "flash": 5, "inferno": 5, "refrigerate": 5,
	"habanero_tactics": 5, "expertise": 10, "efficiency": 10,
	"fortune": 4, "pristine": 5, "compact": 10, "cultivating": 10,
	"champion": 10, "hecatomb": 10, "divine_gift": 3, "toxophilite": 5,
}

// TierBucket classifies a (name, level) pair. Unknown enchants are MISC.
func TierBucket(name string, level int) Bucket {
	rules, ok := enchantBuckets[textnorm.NormalizeEnchantKey(name)]
	if !ok {
		return BucketMisc
	}
	bucket := BucketMisc
	for _, r := range rules {
		if level >= r.minLevel {
			bucket = r.bucket
		}
	}
	return bucket
}

// Weight is the ranking heuristic for displaying matched enchants: higher
// tier bucket dominates, level breaks ties.
func Weight(name string, level int) int {
	return int(TierBucket(name, level))*32 + level
}

// MaxLevel returns the known ceiling for an enchant, or 0 when unknown.
func MaxLevel(name string) int {
	return maxLevels[textnorm.NormalizeEnchantKey(name)]
}

// EnchantNames returns every known enchant name, sorted.
func EnchantNames() []string {
	names := make([]string, 0, len(maxLevels))
	for n := range maxLevels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
