package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoot() *cobra.Command {
	root := &cobra.Command{Use: "motoragd", Short: "root"}
	AddHelpJSONFlag(root)

	cache := &cobra.Command{Use: "cache", Short: "Manage the response cache"}
	sweep := &cobra.Command{
		Use:         "sweep",
		Short:       "Delete expired cached responses",
		Annotations: map[string]string{EnvAnnotation: "MOTORAG_DATABASE_URL, MOTORAG_CACHE_MAX_ENTRIES"},
		RunE:        func(cmd *cobra.Command, args []string) error { return nil },
	}
	sweep.Flags().StringP("output", "o", "text", "Output format")
	sweep.Flags().String("bucket", "", "Bucket")
	_ = sweep.MarkFlagRequired("bucket")
	cache.AddCommand(sweep)
	root.AddCommand(cache)

	root.AddCommand(&cobra.Command{Use: "hidden", Hidden: true, Run: func(*cobra.Command, []string) {}})
	return root
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(testRoot())

	assert.Equal(t, "motoragd", schema.Name)
	assert.False(t, schema.Runnable)
	require.Len(t, schema.Subcommands, 1)

	cache := schema.Subcommands[0]
	assert.Equal(t, "cache", cache.Name)
	require.Len(t, cache.Subcommands, 1)

	sweep := cache.Subcommands[0]
	assert.True(t, sweep.Runnable)
	assert.Equal(t, []string{"MOTORAG_CACHE_MAX_ENTRIES", "MOTORAG_DATABASE_URL"}, sweep.Env)
	require.Len(t, sweep.Flags, 2)

	byName := map[string]FlagSchema{}
	for _, f := range sweep.Flags {
		byName[f.Name] = f
	}
	assert.Equal(t, "o", byName["output"].Shorthand)
	assert.Equal(t, "text", byName["output"].Default)
	assert.False(t, byName["output"].Required)
	assert.True(t, byName["bucket"].Required)
}

func TestHelpJSONTarget(t *testing.T) {
	root := testRoot()

	_, ok := HelpJSONTarget(root, []string{"cache", "sweep"})
	assert.False(t, ok)

	target, ok := HelpJSONTarget(root, []string{"cache", "sweep", "--help-json"})
	require.True(t, ok)
	assert.Equal(t, "sweep", target.Name())

	target, ok = HelpJSONTarget(root, []string{"unknown", "--help-json"})
	require.True(t, ok)
	assert.Equal(t, "motoragd", target.Name())
}

func TestWriteSchema(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteSchema(&out, testRoot()))

	var decoded CommandSchema
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "motoragd", decoded.Name)
}
