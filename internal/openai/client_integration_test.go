//go:build integration

package openai

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_EmbedTexts_RealAPI(t *testing.T) {
	apiKey := os.Getenv("MOTORAG_OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("MOTORAG_OPENAI_API_KEY not set, skipping integration test")
	}

	client := NewClientWithConfig(Config{APIKey: apiKey})
	vectors, err := client.EmbedTexts(context.Background(), []string{
		"COE bidding for category D motorcycles.",
		"Road tax for a 400cc motorcycle.",
	})

	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.NotEmpty(t, vectors[0])
	assert.Len(t, vectors[1], len(vectors[0]))
}
