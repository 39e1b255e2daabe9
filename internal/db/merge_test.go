package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeSignature_EmptySides(t *testing.T) {
	assert.Equal(t, "stars10:5", MergeSignature("", "stars10:5"))
	assert.Equal(t, "stars10:5", MergeSignature("stars10:5", ""))
	assert.Equal(t, "", MergeSignature("", ""))
}

func TestMergeSignature_KeepsExistingByDefault(t *testing.T) {
	existing := "tier:legendary|stars10:5|sharpness:7"
	incoming := "tier:legendary|stars10:5|sharpness:6"
	assert.Equal(t, existing, MergeSignature(existing, incoming))
}

func TestMergeSignature_PetItemUpgrades(t *testing.T) {
	existing := "pet_level:100"
	incoming := "pet_level:100|pet_item:tier_boost"
	assert.Equal(t, incoming, MergeSignature(existing, incoming))

	// Once present the pet item does not get replaced.
	assert.Equal(t, incoming, MergeSignature(incoming, "pet_level:100|pet_item:lucky_clover"))
}

func TestMergeSignature_StarsDisagreementTakesIncoming(t *testing.T) {
	existing := "dstars:5|stars10:5"
	incoming := "dstars:5|mstars:1|stars10:6"
	assert.Equal(t, incoming, MergeSignature(existing, incoming))

	// stars10 absent on both sides is agreement, not disagreement.
	assert.Equal(t, "tier:rare", MergeSignature("tier:rare", "tier:epic"))
}

// Repeated application with the same incoming value must settle.
func TestMergeSignature_Idempotent(t *testing.T) {
	cases := [][2]string{
		{"", "stars10:5"},
		{"stars10:5", "stars10:8"},
		{"pet_level:100", "pet_level:100|pet_item:tier_boost"},
		{"tier:rare|stars10:3", "tier:rare|stars10:3"},
	}
	for _, c := range cases {
		once := MergeSignature(c[0], c[1])
		twice := MergeSignature(once, c[1])
		assert.Equal(t, once, twice, "merge(%q, %q) did not settle", c[0], c[1])
	}
}

func TestSigToken(t *testing.T) {
	sig := "tier:legendary|stars10:8|pet_item:tier_boost"
	assert.Equal(t, "8", sigToken(sig, "stars10"))
	assert.Equal(t, "", sigToken(sig, "dstars"))
	assert.True(t, hasSigToken(sig, "pet_item"))
	assert.False(t, hasSigToken("", "pet_item"))
}
