package advisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONBlock(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"bare object",
			`{"intents": ["buy"]}`,
			`{"intents": ["buy"]}`,
		},
		{
			"prose around object",
			`Sure, here you go: {"item": "bike", "category": "vehicle"} Hope that helps!`,
			`{"item": "bike", "category": "vehicle"}`,
		},
		{
			"fenced json",
			"```json\n{\"amount\": 50000}\n```",
			`{"amount": 50000}`,
		},
		{
			"nested object",
			`{"goal": {"amount": 600000, "timeline_months": 12}}`,
			`{"goal": {"amount": 600000, "timeline_months": 12}}`,
		},
		{
			"no object",
			"I cannot answer that.",
			"",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractJSONBlock(tc.in))
		})
	}
}

func TestIsUnusable(t *testing.T) {
	assert.True(t, IsUnusable(""))
	assert.True(t, IsUnusable("   \n\t"))
	assert.True(t, IsUnusable("<html><body>502 Bad Gateway</body></html>"))
	assert.True(t, IsUnusable("<!DOCTYPE html><html></html>"))
	assert.False(t, IsUnusable("Buying the bike now is affordable."))
	assert.False(t, IsUnusable(`{"intents": []}`))
}
