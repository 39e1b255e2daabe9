// Package catalog carries the fixed lookup tables the engine and the API
// share: cosmetic catalogs (dyes, skins, pet skins, pet items), the known
// enchant list, and the enchantment tier-bucket table.
package catalog

import (
	"strings"

	"github.com/skylens/auction-intel/internal/textnorm"
)

// Entry is one catalog item: a display label and its normalized key.
type Entry struct {
	Label string `json:"label"`
	Key   string `json:"key"`
}

func entries(labels ...string) []Entry {
	out := make([]Entry, 0, len(labels))
	for _, l := range labels {
		out = append(out, Entry{Label: l, Key: textnorm.NormKey(l)})
	}
	return out
}

var dyes = entries(
	"Aquamarine Dye", "Bingo Blue Dye", "Bone Dye", "Brick Red Dye",
	"Byzantium Dye", "Carmine Dye", "Celadon Dye", "Celeste Dye",
	"Dark Purple Dye", "Emerald Dye", "Flame Dye", "Fossil Dye",
	"Frostbitten Dye", "Holly Dye", "Iceberg Dye", "Jade Dye",
	"Livid Dye", "Mango Dye", "Matcha Dye", "Midnight Dye",
	"Necron Dye", "Nyanza Dye", "Pearlescent Dye", "Pure Black Dye",
	"Pure White Dye", "Sangria Dye", "Wild Strawberry Dye",
)

var skins = entries(
	"Burning Aurora Skin", "Crystal Dragon Skin", "Diamond Necron Head",
	"Frozen Blaze Skin", "Glacial Skin", "Golden Necron Head",
	"Infernal Aurora Skin", "Lapis Armor Skin", "Lunar Rabbit Skin",
	"Pastel Skin", "Reaper Prime Skin", "Seraphic Skin",
	"Shimmer Skin", "Snow Princess Skin", "Superior Dragon Skin",
	"Winter Wonderland Skin",
)

var petSkins = entries(
	"Black Cat Ignited", "Blue Elephant", "Dragon Neon Blaze",
	"Ender Dragon Baby", "Ender Dragon Undead", "Golden Monkey",
	"Grandma Wolf Dark", "Jerry Green Elf", "Jerry Red Elf",
	"Megalodon Baby", "Parrot Gold Macaw", "Phoenix Ice",
	"Rabbit Aussie", "Sheep Neon Yellow", "Tiger Twilight",
	"Whale Orca", "Wither Skeleton Nether",
)

var petItems = entries(
	"All Skills Exp Boost", "Bigger Teeth", "Combat Exp Boost",
	"Crochet Tiger Plushie", "Dwarf Turtle Shelmet", "Exp Share",
	"Farming Exp Boost", "Fishing Exp Boost", "Foraging Exp Boost",
	"Hardened Scales", "Iron Claws", "Lucky Clover", "Mining Exp Boost",
	"Minos Relic", "Quick Claw", "Reinforced Scales", "Serrated Claws",
	"Sharpened Claws", "Spooky Cupcake", "Textbook", "Tier Boost",
	"Washed Up Souvenir", "Yellow Bandana",
)

// Dyes returns dye catalog entries whose label or key contains q
// (case-insensitive substring; empty q returns everything).
func Dyes(q string) []Entry { return filter(dyes, q) }

// Skins filters the armor/item skin catalog.
func Skins(q string) []Entry { return filter(skins, q) }

// PetSkins filters the pet skin catalog.
func PetSkins(q string) []Entry { return filter(petSkins, q) }

// PetItems filters the pet held-item catalog.
func PetItems(q string) []Entry { return filter(petItems, q) }

func filter(all []Entry, q string) []Entry {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		out := make([]Entry, len(all))
		copy(out, all)
		return out
	}
	out := make([]Entry, 0, len(all))
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Label), q) || strings.Contains(e.Key, q) {
			out = append(out, e)
		}
	}
	return out
}
