package textnorm

import "testing"

func TestCleanText_StripsColorEscapesAndGlyphKeepsWords(t *testing.T) {
	// §6 is a color escape: the paragraph sign and the rune after it vanish.
	in := "§6Necron's Blade §7(Unrefined)"
	got := CleanText(in)
	want := "Necron's Blade Unrefined"
	if got != want {
		t.Errorf("CleanText(%q) = %q, want %q", in, got, want)
	}
}

func TestCleanText_CurlyApostrophe(t *testing.T) {
	got := CleanText("Necron’s Blade")
	if got != "Necron's Blade" {
		t.Errorf("curly apostrophe not straightened: %q", got)
	}
}

func TestNormKey_SeparatorsAndApostrophes(t *testing.T) {
	cases := map[string]string{
		"Necron's Blade":   "necrons blade",
		"TIER_BOOST":       "tier boost",
		"Ender-Dragon":     "ender dragon",
		"  Wither   Skull": "wither skull",
	}
	for in, want := range cases {
		if got := NormKey(in); got != want {
			t.Errorf("NormKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeWeirdDigits_AllFamilies(t *testing.T) {
	cases := map[string]string{
		"⓪①⑨": "019",
		"０９":  "09",
		"➊➓":  "110",
		"❶❿":  "110",
		"⓵⓾":  "110",
		"⁰¹²³⁴⁹": "012349",
		"₀₉":  "09",
		"x⑤y": "x5y",
	}
	for in, want := range cases {
		if got := NormalizeWeirdDigits(in); got != want {
			t.Errorf("NormalizeWeirdDigits(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalItemKey_StarsAndReforge(t *testing.T) {
	cases := map[string]string{
		"✪✪✪✪✪ Necron's Blade":      "necrons blade",
		"Withered Hyperion ✪✪✪✪✪":   "hyperion",
		"Heroic Hyperion":           "hyperion",
		"[Lvl 100] Ender Dragon":    "ender dragon",
		"Lvl 42 Blue Whale":         "blue whale",
		"Hyperion3":                 "hyperion",
		"§dFabled Aspect of the End": "aspect of the end",
		"Very Fabled Livid Dagger":  "livid dagger",
	}
	for in, want := range cases {
		if got := CanonicalItemKey(in); got != want {
			t.Errorf("CanonicalItemKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalItemKey_Idempotent(t *testing.T) {
	inputs := []string{
		"✪✪✪✪✪ Necron's Blade",
		"[Lvl 100] Ender Dragon",
		"Withered Hyperion ✪✪✪✪✪",
		"plain item",
		"",
	}
	for _, in := range inputs {
		once := CanonicalItemKey(in)
		twice := CanonicalItemKey(once)
		if once != twice {
			t.Errorf("CanonicalItemKey not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeEnchantKey(t *testing.T) {
	cases := map[string]string{
		"ULTIMATE_WISE":  "wise",
		"Ultimate Wise":  "wise",
		"sharpness":      "sharpness",
		"Dragon Hunter":  "dragon_hunter",
		" ultimate_one_for_all ": "one_for_all",
	}
	for in, want := range cases {
		if got := NormalizeEnchantKey(in); got != want {
			t.Errorf("NormalizeEnchantKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseRoman(t *testing.T) {
	for s, want := range map[string]int{"I": 1, "iv": 4, "V": 5, "x": 10, "XX": 20} {
		got, ok := ParseRoman(s)
		if !ok || got != want {
			t.Errorf("ParseRoman(%q) = %d,%v want %d", s, got, ok, want)
		}
	}
	if _, ok := ParseRoman("XXI"); ok {
		t.Error("ParseRoman accepted out-of-range numeral XXI")
	}
	if _, ok := ParseRoman("hello"); ok {
		t.Error("ParseRoman accepted junk")
	}
}

func TestHasStarSignal(t *testing.T) {
	if !HasStarSignal("Necron's Blade ✪✪") {
		t.Error("star glyphs not detected")
	}
	if !HasStarSignal("Hyperion ➎") {
		t.Error("weird digit not detected")
	}
	if HasStarSignal("Aspect of the End") {
		t.Error("false positive on plain name")
	}
}
