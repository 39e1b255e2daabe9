package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skylens/auction-intel/internal/match"
	"github.com/skylens/auction-intel/internal/recommend"
	"github.com/skylens/auction-intel/internal/textnorm"
)

// parseRecommendQuery maps the /api/recommend query string onto a
// recommendation request. Enchant syntax is a comma-separated list of
// "Name Level" entries where the level may be a digit or a Roman numeral,
// e.g. enchants=Sharpness 7,Ultimate Wise V. The UI's short parameter
// names (item_key, stars10, rarity, wi, petlvl) are the primary spelling;
// the long forms are kept as aliases.
func parseRecommendQuery(c *gin.Context) (recommend.Request, error) {
	req := recommend.Request{
		ItemKey: textnorm.NormKey(queryAlias(c, "item_key", "item")),
	}

	if raw := queryAlias(c, "stars10", "stars"); raw != "" {
		stars, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("stars10 must be a number, got %q", raw)
		}
		req.Stars10 = clampInt(stars, 0, 10)
	}

	enchants, err := parseEnchantList(c.Query("enchants"))
	if err != nil {
		return req, err
	}
	req.Enchants = enchants

	req.Filters = match.Filters{
		Tier:    queryAlias(c, "rarity", "tier"),
		Dye:     c.Query("dye"),
		Skin:    c.Query("skin"),
		PetSkin: c.Query("petskin"),
		PetItem: c.Query("petitem"),
	}
	wi := queryAlias(c, "wi", "wither_impact")
	switch strings.ToLower(wi) {
	case "", "0", "false", "no":
	case "1", "true", "yes":
		req.Filters.WitherImpact = true
	default:
		return req, fmt.Errorf("wi must be a boolean, got %q", wi)
	}
	if raw := queryAlias(c, "petlvl", "pet_level"); raw != "" {
		lvl, err := strconv.Atoi(raw)
		if err != nil || lvl < 0 {
			return req, fmt.Errorf("petlvl must be a non-negative number, got %q", raw)
		}
		req.Filters.MinPetLevel = clampInt(lvl, 0, 200)
	}

	return req, nil
}

// queryAlias returns the first query parameter among names that is set.
func queryAlias(c *gin.Context, names ...string) string {
	for _, n := range names {
		if v := c.Query(n); v != "" {
			return v
		}
	}
	return ""
}

// parseEnchantList splits "Sharpness 7,Ultimate Wise V" into requests.
// The level is the last whitespace-separated token of each entry.
func parseEnchantList(raw string) ([]recommend.EnchantReq, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var out []recommend.EnchantReq
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Fields(entry)
		if len(fields) < 2 {
			return nil, fmt.Errorf("enchant %q needs a level, e.g. %q", entry, entry+" 5")
		}
		name := strings.Join(fields[:len(fields)-1], " ")
		level, err := parseEnchantLevel(fields[len(fields)-1])
		if err != nil {
			return nil, fmt.Errorf("enchant %q: %v", entry, err)
		}
		out = append(out, recommend.EnchantReq{Name: name, Level: level})
	}
	return out, nil
}

func parseEnchantLevel(tok string) (int, error) {
	if n, err := strconv.Atoi(tok); err == nil {
		if n < 1 || n > 20 {
			return 0, fmt.Errorf("level %d out of range 1-20", n)
		}
		return n, nil
	}
	if n, ok := textnorm.ParseRoman(tok); ok {
		return n, nil
	}
	return 0, fmt.Errorf("level %q is neither a number nor a Roman numeral", tok)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
