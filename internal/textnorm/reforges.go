package textnorm

// reforges is the fixed vocabulary of reforge prefixes. A reforge changes
// an item's stats but never its identity, so these words are stripped from
// the front of a name during canonicalization.
var reforges = map[string]bool{}

func init() {
	for _, r := range []string{
		// swords
		"gentle", "odd", "fast", "fair", "epic", "sharp", "heroic",
		"spicy", "legendary", "dirty", "fabled", "suspicious", "gilded",
		"warped", "withered", "bulky", "fanged",
		// bows
		"salty", "treacherous", "lucky", "stiff", "chomp", "pitchin",
		"awkward", "rich", "fine", "neat", "hasty", "grand", "rapid",
		"unreal", "deadly", "precise", "spiritual", "headstrong",
		// armor
		"clean", "fierce", "heavy", "light", "mythic", "pure", "titanic",
		"smart", "wise", "candied", "submerged", "perfect", "reinforced",
		"renowned", "spiked", "hyper", "giant", "jaded", "cubic",
		"necrotic", "empowered", "ancient", "undead", "loving",
		"ridiculous", "bustling", "festive", "greater",
		// equipment
		"stained", "menacing", "hefty", "soft", "honored", "blended",
		"astute", "colossal", "brilliant",
		// tools and rods
		"stellar", "mithraic", "refined", "blessed", "toil", "bountiful",
		"fruitful", "magnetic", "fleet", "auspicious", "heated",
		"ambered", "earthy", "moil", "lush", "glacial", "robust",
		"zooming", "peasant", "green", "thorn",
		// misc accessory prefixes
		"bizarre", "itchy", "ominous", "pleasant", "pretty", "shiny",
		"simple", "strange", "vivid", "godly", "demonic", "forceful",
		"hurtful", "keen", "strong", "superior", "unpleasant", "zealous",
		"silky", "bloody", "shaded", "sweet",
		// stacked decoration words seen ahead of a real reforge
		"very", "highly", "extremely", "absolutely",
	} {
		reforges[r] = true
	}
}

// IsReforge reports whether the (already normalized) token is a known
// reforge prefix.
func IsReforge(token string) bool {
	return reforges[token]
}
