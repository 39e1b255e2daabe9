// Package textnorm converts the upstream feed's decorated display strings
// (color escapes, star glyphs, circled digits, reforge prefixes) into the
// canonical forms the rest of the engine keys on. Focus: stable keys, no
// locale surprises, idempotent output.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// colorEscape is the legacy paragraph-sign prefix; the rune following it is
// a color/style code and both are dropped.
const colorEscape = '§'

// StarGlyphs is every glyph the feed uses to render dungeon/master stars.
const StarGlyphs = "✪★☆✯✰●⬤○◉◎◍"

// IsStarGlyph reports whether r renders as a star or filled circle.
func IsStarGlyph(r rune) bool {
	return strings.ContainsRune(StarGlyphs, r)
}

// weirdDigits maps the decorative digit code points the feed emits to their
// ASCII expansion. Rows are prefix-to-digit aligned: the first rune in each
// family maps to the row's starting value.
var weirdDigits = map[rune]string{}

func init() {
	addDigitRun := func(first rune, count int, startVal int) {
		for i := 0; i < count; i++ {
			weirdDigits[first+rune(i)] = itoa(startVal + i)
		}
	}
	weirdDigits['⓪'] = "0"            // ⓪
	addDigitRun('①', 9, 1)            // ① … ⑨
	addDigitRun('０', 10, 0)           // ０ … ９
	addDigitRun('➊', 10, 1)           // ➊ … ➓
	addDigitRun('❶', 10, 1)           // ❶ … ❿
	addDigitRun('⓵', 10, 1)           // ⓵ … ⓾
	weirdDigits['⁰'] = "0"            // ⁰
	weirdDigits['¹'] = "1"            // ¹
	weirdDigits['²'] = "2"            // ²
	weirdDigits['³'] = "3"            // ³
	addDigitRun('⁴', 6, 4)            // ⁴ … ⁹
	addDigitRun('₀', 10, 0)           // ₀ … ₉
}

func itoa(n int) string {
	if n == 10 {
		return "10"
	}
	return string(rune('0' + n))
}

// NormalizeWeirdDigits replaces circled, fullwidth, dingbat, superscript and
// subscript digits with their ASCII equivalents. Everything else passes
// through untouched.
func NormalizeWeirdDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := weirdDigits[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// StripColorEscapes removes every paragraph-sign escape together with the
// code rune that follows it.
func StripColorEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	skip := false
	for _, r := range s {
		if skip {
			skip = false
			continue
		}
		if r == colorEscape {
			skip = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CleanText strips color escapes, applies NFKC compatibility folding,
// straightens curly apostrophes, drops everything that is not a letter,
// digit, whitespace or apostrophe, and collapses runs of whitespace.
func CleanText(s string) string {
	s = StripColorEscapes(s)
	s = norm.NFKC.String(s)
	s = strings.NewReplacer("’", "'", "‘", "'").Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '\'' {
			b.WriteRune(r)
		}
	}
	return collapseSpaces(b.String())
}

// NormKey lowercases the cleaned text, removes apostrophes and treats
// hyphens and underscores as word separators. This is the form used for
// cosmetic values (dye, skin, pet skin) and map lookups.
func NormKey(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	s = strings.ToLower(CleanText(s))
	s = strings.ReplaceAll(s, "'", "")
	return collapseSpaces(s)
}

// NormalizeEnchantKey canonicalizes an enchantment name: lowercase,
// underscore-joined, with the "ultimate" marker prefix removed. Both the
// binary payload form (ULTIMATE_WISE) and the display form (Ultimate Wise)
// reduce to the same key.
func NormalizeEnchantKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.Trim(s, "_")
	s = strings.TrimPrefix(s, "ultimate_")
	return s
}

// UnderscoreKey reduces free text to a lowercase underscore-joined token,
// used for pet held items ("✦ Tier Boost" -> "tier_boost").
func UnderscoreKey(s string) string {
	return strings.ReplaceAll(NormKey(s), " ", "_")
}

// CanonicalItemKey derives the stable identity of an item: the same base
// item keys identically regardless of stars, reforge prefixes, pet level
// prefixes or trailing variant digits glued onto words.
func CanonicalItemKey(s string) string {
	s = NormalizeWeirdDigits(s)
	s = StripColorEscapes(s)

	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for _, r := range s {
		switch {
		case r == '(' || r == '[':
			depth++
		case r == ')' || r == ']':
			if depth > 0 {
				depth--
			}
		case depth > 0:
			// inside a parenthesized or bracketed run
		case IsStarGlyph(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}

	tokens := strings.Fields(NormKey(splitLetterDigit(b.String())))
	tokens = dropPetLevelPrefix(tokens)
	tokens = stripReforgePrefixes(tokens)
	// Trailing variant digits ("Hyperion3") do not change identity.
	for len(tokens) > 1 && isASCIIDigits(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// splitLetterDigit inserts a space at every letter<->digit boundary so that
// trailing variant digits ("Hyperion3") become their own token.
func splitLetterDigit(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	var prev rune
	for i, r := range s {
		if i > 0 {
			if (unicode.IsLetter(prev) && unicode.IsDigit(r)) ||
				(unicode.IsDigit(prev) && unicode.IsLetter(r)) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// dropPetLevelPrefix removes a leading "lvl 100" / "lv 7" / "level 42" pair.
func dropPetLevelPrefix(tokens []string) []string {
	if len(tokens) < 2 {
		return tokens
	}
	switch tokens[0] {
	case "lvl", "lv", "level":
		if isASCIIDigits(tokens[1]) {
			return tokens[2:]
		}
	}
	return tokens
}

// stripReforgePrefixes drops up to two leading reforge words. Two, because
// stacked decorations ("Very Fabled …") occur in the wild.
func stripReforgePrefixes(tokens []string) []string {
	for i := 0; i < 2 && len(tokens) > 1; i++ {
		if !reforges[tokens[0]] {
			break
		}
		tokens = tokens[1:]
	}
	return tokens
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var romanNumerals = map[string]int{
	"i": 1, "ii": 2, "iii": 3, "iv": 4, "v": 5,
	"vi": 6, "vii": 7, "viii": 8, "ix": 9, "x": 10,
	"xi": 11, "xii": 12, "xiii": 13, "xiv": 14, "xv": 15,
	"xvi": 16, "xvii": 17, "xviii": 18, "xix": 19, "xx": 20,
}

// ParseRoman resolves a Roman numeral between I and XX (case-insensitive).
func ParseRoman(s string) (int, bool) {
	v, ok := romanNumerals[strings.ToLower(strings.TrimSpace(s))]
	return v, ok
}

// HasStarSignal reports whether the raw item name carries any star glyph or
// decorative digit. The ingest transform uses it to decide whether a
// non-BIN, payload-less auction still deserves a signature build.
func HasStarSignal(name string) bool {
	for _, r := range name {
		if IsStarGlyph(r) {
			return true
		}
		if _, ok := weirdDigits[r]; ok {
			return true
		}
	}
	return false
}
