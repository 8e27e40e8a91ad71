package daemon

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/motomarket/motorag/internal/domain"
	llm "github.com/motomarket/motorag/internal/openai"
	"github.com/motomarket/motorag/internal/service"
	"github.com/motomarket/motorag/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintAnswer(t *testing.T) {
	var out bytes.Buffer

	err := printAnswer(&out, llm.SyntheticStream("COE for category D closed at $9,000."))
	require.NoError(t, err)
	assert.Equal(t, "COE for category D closed at $9,000.\n", out.String())
}

func TestPrintMetadata(t *testing.T) {
	var out bytes.Buffer

	printMetadata(&out, service.ChatMetadata{
		Sources:   []service.SourceRef{{Source: "coe/bidding", Section: "Bidding", Score: 0.8123}},
		Intent:    service.IntentRef{Type: domain.IntentRegulation, Category: "coe"},
		ToolsUsed: []string{"get_coe_price"},
	})

	got := out.String()
	assert.Contains(t, got, "intent: regulation (coe)")
	assert.Contains(t, got, "source: coe/bidding#Bidding (0.812)")
	assert.Contains(t, got, "tools: get_coe_price")
}

func TestToolsCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := ToolsCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	var defs []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &defs))
	assert.Len(t, defs, 6)
	for _, d := range defs {
		assert.Equal(t, "function", d["type"])
	}
}

func TestToolsRunCmd_RoadTax(t *testing.T) {
	t.Setenv("MOTORAG_DATABASE_URL", "")

	var out bytes.Buffer
	cmd := ToolsCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run", "calculate_road_tax", `{"engineSize":600}`})

	require.NoError(t, cmd.Execute())

	var env tools.Envelope
	require.NoError(t, json.Unmarshal(out.Bytes(), &env))
	assert.Equal(t, tools.NameCalculateRoadTax, env.Tool)
	assert.Equal(t, tools.RoadTaxResult{EngineCC: 600, Annual: 372, HalfYear: 186}, env.Result)
}

func TestToolsRunCmd_InvalidArgs(t *testing.T) {
	t.Setenv("MOTORAG_DATABASE_URL", "")

	cmd := ToolsCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "calculate_road_tax", "{not json"})

	assert.Error(t, cmd.Execute())
}
