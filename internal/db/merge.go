package db

import "strings"

// MergeSignature decides which of two signatures to keep for the same
// auction. Feed pages disagree when lore or bytes arrive on some pages but
// not others; the rule is to keep what we have unless the incoming value
// carries strictly more information:
//   - the stored signature is empty,
//   - the incoming one adds a pet_item token the stored one lacks,
//   - the two disagree on stars10 (the later snapshot wins, stars only
//     ever move forward).
//
// The auctions bulk upsert and the sales upsert apply the same rule in
// SQL; keep the three in sync.
func MergeSignature(existing, incoming string) string {
	if existing == "" {
		return incoming
	}
	if incoming == "" {
		return existing
	}
	if hasSigToken(incoming, "pet_item") && !hasSigToken(existing, "pet_item") {
		return incoming
	}
	if sigToken(existing, "stars10") != sigToken(incoming, "stars10") {
		return incoming
	}
	return existing
}

func hasSigToken(sig, key string) bool {
	return sigToken(sig, key) != ""
}

// sigToken returns the raw value of a key:value token, or "".
func sigToken(sig, key string) string {
	for _, tok := range strings.Split(sig, "|") {
		if rest, ok := strings.CutPrefix(tok, key+":"); ok {
			return rest
		}
	}
	return ""
}
