package signature

import (
	"strings"
	"testing"

	"github.com/skylens/auction-intel/internal/nbtparse/nbttest"
)

func TestBuild_StarredItemFromNameOnly(t *testing.T) {
	// Five rendered stars, no payload: everything comes from text parsing.
	sig := Build(Input{
		ItemName: "✪✪✪✪✪ Necron's Blade",
		Tier:     "LEGENDARY",
	})
	want := "tier:legendary|dstars:5|stars10:5"
	if sig != want {
		t.Errorf("Build = %q, want %q", sig, want)
	}
}

func TestBuild_MasterStarsFromPayload(t *testing.T) {
	payload := nbttest.Payload(nbttest.Item(map[string]any{
		"dungeon_item_level": int32(5),
		"upgrade_level":      int32(3),
		"enchantments":       map[string]any{"sharpness": int32(7)},
	}))
	sig := Build(Input{ItemName: "Necron's Blade", ItemBytes: payload})
	for _, tok := range []string{"dstars:5", "mstars:3", "stars10:8", "sharpness:7"} {
		if !hasToken(sig, tok) {
			t.Errorf("signature %q missing token %q", sig, tok)
		}
	}
}

func TestBuild_TotalPackedInDungeonField(t *testing.T) {
	payload := nbttest.Payload(nbttest.Item(map[string]any{
		"dungeon_item_level": int32(8),
		"upgrade_level":      int32(0),
	}))
	sig := Build(Input{ItemName: "Necron's Blade", ItemBytes: payload})
	for _, tok := range []string{"dstars:5", "mstars:3", "stars10:8"} {
		if !hasToken(sig, tok) {
			t.Errorf("signature %q missing token %q", sig, tok)
		}
	}
}

func TestBuild_WitherImpactFromScrolls(t *testing.T) {
	full := []string{"implosion_scroll", "shadow_warp_scroll", "wither_shield_scroll"}
	payload := nbttest.Payload(nbttest.Item(map[string]any{
		"ability_scroll": full,
	}))
	sig := Build(Input{ItemName: "Hyperion", ItemBytes: payload})
	if !hasToken(sig, "wither_impact:1") {
		t.Errorf("full scroll set: signature %q missing wither_impact", sig)
	}

	// Remove any one scroll: the flag must vanish.
	for drop := range full {
		partial := make([]string, 0, 2)
		for i, s := range full {
			if i != drop {
				partial = append(partial, s)
			}
		}
		payload := nbttest.Payload(nbttest.Item(map[string]any{
			"ability_scroll": partial,
		}))
		sig := Build(Input{ItemName: "Hyperion", ItemBytes: payload})
		if hasToken(sig, "wither_impact:1") {
			t.Errorf("missing %s but wither_impact still set: %q", full[drop], sig)
		}
	}
}

func TestBuild_WitherImpactRequiresBladeKey(t *testing.T) {
	payload := nbttest.Payload(nbttest.Item(map[string]any{
		"ability_scroll": []string{"implosion_scroll", "shadow_warp_scroll", "wither_shield_scroll"},
	}))
	sig := Build(Input{ItemName: "Aspect of the End", ItemBytes: payload})
	if hasToken(sig, "wither_impact:1") {
		t.Errorf("non-blade item got wither_impact: %q", sig)
	}
}

func TestBuild_WitherImpactFromLore(t *testing.T) {
	sig := Build(Input{
		ItemName: "Heroic Valkyrie",
		Lore:     "Ability: Wither Impact RIGHT CLICK\nTeleport ahead and implode",
	})
	if !hasToken(sig, "wither_impact:1") {
		t.Errorf("lore mention did not set wither_impact: %q", sig)
	}
}

func TestBuild_PetWithHeldItemInLore(t *testing.T) {
	sig := Build(Input{
		ItemName: "[Lvl 100] Ender Dragon",
		Lore:     "§7Held Item: ✦ Tier Boost\n§7Boosts the pet tier",
	})
	for _, tok := range []string{"pet_level:100", "pet_item:tier_boost"} {
		if !hasToken(sig, tok) {
			t.Errorf("signature %q missing token %q", sig, tok)
		}
	}
}

func TestBuild_PetLevelFromPetInfoJSON(t *testing.T) {
	payload := nbttest.Payload(nbttest.Item(map[string]any{
		"petInfo": `{"type":"ENDER_DRAGON","level":87,"exp":1.5e7}`,
	}))
	sig := Build(Input{ItemName: "[Lvl 1] Ender Dragon", ItemBytes: payload})
	if !hasToken(sig, "pet_level:87") {
		t.Errorf("petInfo level not preferred over name prefix: %q", sig)
	}
}

func TestBuild_UltimateEnchantForms(t *testing.T) {
	// String NAME_LEVEL form.
	p1 := nbttest.Payload(nbttest.Item(map[string]any{
		"ultimate_enchant": "SOUL_EATER_3",
	}))
	if sig := Build(Input{ItemName: "x", ItemBytes: p1}); !hasToken(sig, "soul_eater:3") {
		t.Errorf("string ultimate form: %q", sig)
	}

	// Object form, merged with the enchant map under max-level-wins.
	p2 := nbttest.Payload(nbttest.Item(map[string]any{
		"enchantments":     map[string]any{"ULTIMATE_WISE": int32(3)},
		"ultimate_enchant": map[string]any{"enchant": "ULTIMATE_WISE", "level": int32(5)},
	}))
	if sig := Build(Input{ItemName: "x", ItemBytes: p2}); !hasToken(sig, "wise:5") {
		t.Errorf("object ultimate form / max merge: %q", sig)
	}
}

func TestBuild_Cosmetics(t *testing.T) {
	payload := nbttest.Payload(nbttest.Item(map[string]any{
		"dye_item": "NECRON_DYE",
		"skin":     "None",
		"petSkin":  "",
	}))
	sig := Build(Input{ItemName: "Wither Chestplate", ItemBytes: payload})
	if !hasToken(sig, "dye:necron dye") {
		t.Errorf("dye token missing: %q", sig)
	}
	if strings.Contains(sig, "skin:") || strings.Contains(sig, "petskin:") {
		t.Errorf("empty/none cosmetics leaked into signature: %q", sig)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	payload := nbttest.Payload(nbttest.Item(map[string]any{
		"dungeon_item_level": int32(7),
		"enchantments": map[string]any{
			"sharpness": int32(7), "giant_killer": int32(6),
			"ULTIMATE_WISE": int32(5), "critical": int32(6),
		},
	}))
	in := Input{ItemName: "Withered Hyperion", Lore: "some lore", Tier: "MYTHIC", ItemBytes: payload}
	first := Build(in)
	for i := 0; i < 20; i++ {
		if got := Build(in); got != first {
			t.Fatalf("non-deterministic build: %q vs %q", got, first)
		}
	}
	// Enchant tokens sorted lexicographically.
	if !strings.Contains(first, "critical:6|giant_killer:6|sharpness:7|wise:5") {
		t.Errorf("enchant ordering wrong: %q", first)
	}
}

func TestBuild_StarInvariants(t *testing.T) {
	payloads := map[string]string{
		"d8":    nbttest.Payload(nbttest.Item(map[string]any{"dungeon_item_level": int32(8)})),
		"u7":    nbttest.Payload(nbttest.Item(map[string]any{"upgrade_level": int32(7)})),
		"d3u2":  nbttest.Payload(nbttest.Item(map[string]any{"dungeon_item_level": int32(3), "upgrade_level": int32(2)})),
		"d5":    nbttest.Payload(nbttest.Item(map[string]any{"dungeon_item_level": int32(5)})),
		"empty": "",
	}
	for name, payload := range payloads {
		sig := Build(Input{ItemName: "Necron's Blade ✪✪✪", ItemBytes: payload})
		d, m, s10 := tokenInt(sig, "dstars"), tokenInt(sig, "mstars"), tokenInt(sig, "stars10")
		if m > 0 && d != 5 {
			t.Errorf("%s: mstars=%d but dstars=%d: %q", name, m, d, sig)
		}
		if (d > 0 || m > 0) && s10 != d+m {
			t.Errorf("%s: stars10=%d != dstars+mstars=%d: %q", name, s10, d+m, sig)
		}
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	if sig := Build(Input{}); sig != "" {
		t.Errorf("empty input produced %q", sig)
	}
}

func TestStars10FromText(t *testing.T) {
	cases := map[string]int{
		"":                        0,
		"Necron's Blade":          0,
		"Necron's Blade ✪✪✪":      3,
		"✪✪✪✪✪ Necron's Blade":    5,
		"Hyperion ✪✪✪✪✪ 3":        8,
		"Hyperion ✪✪✪✪✪➋":         7,
		"Astraea ✪✪✪✪✪ V":         10,
		"Scylla ✪ ✪ ✪ ✪ ✪":        5,
		"Giant's Sword ✪✪✪✪✪ X":   5, // X is not a valid 1-5 suffix
	}
	for in, want := range cases {
		if got := Stars10FromText(in); got != want {
			t.Errorf("Stars10FromText(%q) = %d, want %d", in, got, want)
		}
	}
}

func hasToken(sig, token string) bool {
	for _, t := range strings.Split(sig, "|") {
		if t == token {
			return true
		}
	}
	return false
}

func tokenInt(sig, key string) int {
	for _, t := range strings.Split(sig, "|") {
		if rest, ok := strings.CutPrefix(t, key+":"); ok {
			n := 0
			for _, r := range rest {
				if r < '0' || r > '9' {
					return 0
				}
				n = n*10 + int(r-'0')
			}
			return n
		}
	}
	return 0
}
