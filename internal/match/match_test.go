package match

import "testing"

const candSig = "tier:legendary|dstars:5|mstars:3|stars10:8|wither_impact:1|sharpness:7|wise:5"

func TestEvaluate_ExactMatch(t *testing.T) {
	q := Query{
		Stars10:  8,
		Enchants: map[string]int{"sharpness": 7},
		Filters:  Filters{Tier: "LEGENDARY", WitherImpact: true},
	}
	res := Evaluate(q, candSig)
	if res.Quality != Perfect {
		t.Fatalf("quality = %v, want PERFECT", res.Quality)
	}
	if res.StarsDiff != 0 || res.EnchDiffs["sharpness"] != 0 {
		t.Errorf("diffs = %+v, want zeros", res)
	}
}

func TestEvaluate_StarDiffGrades(t *testing.T) {
	for stars, want := range map[int]Quality{8: Perfect, 7: Partial, 9: Partial, 6: None, 10: None} {
		res := Evaluate(Query{Stars10: stars}, candSig)
		if res.Quality != want {
			t.Errorf("stars10=%d: quality = %v, want %v", stars, res.Quality, want)
		}
	}
}

func TestEvaluate_EnchantDiffGrades(t *testing.T) {
	// Candidate sharpness 7 (AA). Requesting 6 (A) is one bucket and one
	// level off -> partial; requesting 5 (B) is two off -> none.
	cases := map[int]Quality{7: Perfect, 6: Partial, 5: None}
	for want, quality := range cases {
		res := Evaluate(Query{Enchants: map[string]int{"sharpness": want}}, candSig)
		if res.Quality != quality {
			t.Errorf("sharpness %d: quality = %v, want %v", want, res.Quality, quality)
		}
	}
}

func TestEvaluate_MissingEnchantRejects(t *testing.T) {
	res := Evaluate(Query{Enchants: map[string]int{"growth": 5}}, candSig)
	if res.Quality != None {
		t.Errorf("missing enchant: quality = %v, want NONE", res.Quality)
	}
}

func TestEvaluate_UltimatePrefixNormalized(t *testing.T) {
	res := Evaluate(Query{Enchants: map[string]int{"Ultimate Wise": 5}}, candSig)
	if res.Quality != Perfect {
		t.Errorf("ultimate-prefixed request: quality = %v, want PERFECT", res.Quality)
	}
}

func TestEvaluate_FilterMismatches(t *testing.T) {
	cases := map[string]Filters{
		"tier":      {Tier: "MYTHIC"},
		"dye":       {Dye: "Necron Dye"},
		"skin":      {Skin: "Pastel Skin"},
		"petskin":   {PetSkin: "Whale Orca"},
		"pet item":  {PetItem: "Tier Boost"},
		"pet level": {MinPetLevel: 50},
	}
	for name, f := range cases {
		res := Evaluate(Query{Filters: f}, candSig)
		if res.Quality != None {
			t.Errorf("%s filter should reject: got %v", name, res.Quality)
		}
	}
}

func TestEvaluate_PetLevelAtLeast(t *testing.T) {
	sig := "pet_level:100|pet_item:tier_boost"
	if res := Evaluate(Query{Filters: Filters{MinPetLevel: 80}}, sig); res.Quality != Perfect {
		t.Errorf("candidate 100 >= requested 80 should pass: %v", res.Quality)
	}
	if res := Evaluate(Query{Filters: Filters{MinPetLevel: 120}}, sig); res.Quality != None {
		t.Errorf("candidate 100 < requested 120 should reject: %v", res.Quality)
	}
}

func TestEvaluate_NoneFilterIsUnconstrained(t *testing.T) {
	res := Evaluate(Query{Filters: Filters{Dye: "none", Tier: "NONE"}}, candSig)
	if res.Quality != Perfect {
		t.Errorf("'none' filters must not constrain: %v", res.Quality)
	}
}

func TestEvaluate_EmptySignature(t *testing.T) {
	if res := Evaluate(Query{}, ""); res.Quality != Perfect {
		t.Errorf("empty query vs empty signature: %v, want PERFECT", res.Quality)
	}
	if res := Evaluate(Query{Stars10: 5}, ""); res.Quality != None {
		t.Errorf("numeric requirement vs empty signature: %v, want NONE", res.Quality)
	}
	if res := Evaluate(Query{Filters: Filters{Tier: "RARE"}}, ""); res.Quality != None {
		t.Errorf("filter vs empty signature: %v, want NONE", res.Quality)
	}
}

// Adding a constraint must never improve the grade.
func TestEvaluate_MonotoneInStrictness(t *testing.T) {
	base := Query{Stars10: 8, Enchants: map[string]int{"sharpness": 7}}
	baseQ := Evaluate(base, candSig).Quality

	stricter := []Query{
		{Stars10: 8, Enchants: map[string]int{"sharpness": 7}, Filters: Filters{Tier: "legendary"}},
		{Stars10: 8, Enchants: map[string]int{"sharpness": 7, "wise": 5}},
		{Stars10: 8, Enchants: map[string]int{"sharpness": 7}, Filters: Filters{WitherImpact: true}},
		{Stars10: 8, Enchants: map[string]int{"sharpness": 7, "growth": 5}},
		{Stars10: 8, Enchants: map[string]int{"sharpness": 7}, Filters: Filters{Dye: "Holly Dye"}},
	}
	for i, q := range stricter {
		got := Evaluate(q, candSig).Quality
		if got > baseQ {
			t.Errorf("case %d: stricter query promoted %v -> %v", i, baseQ, got)
		}
	}
}

func TestParseSignature_Roundtrip(t *testing.T) {
	p := ParseSignature(candSig)
	if p.Features["tier"] != "legendary" || p.Features["stars10"] != "8" {
		t.Errorf("features = %v", p.Features)
	}
	if p.Enchants["sharpness"] != 7 || p.Enchants["wise"] != 5 {
		t.Errorf("enchants = %v", p.Enchants)
	}
	if p.Stars10() != 8 {
		t.Errorf("Stars10() = %d", p.Stars10())
	}
	if got := ParseSignature(""); len(got.Features) != 0 || len(got.Enchants) != 0 {
		t.Errorf("empty signature parsed to %v", got)
	}
}
