package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/motomarket/motorag/internal/domain"
	"github.com/motomarket/motorag/internal/tools"
)

const basePersona = `You are the assistant for a Singapore motorcycle marketplace.
You help riders buy, sell and own motorcycles: COE, licensing, road tax, insurance, inspection, registration, modifications and traffic rules, plus market prices and listings on this site.
Be concise and practical. Quote figures with their currency (SGD) and say when a figure may be out of date.
If you are not sure about a regulation, say so and point the user to the relevant authority instead of guessing.`

const (
	knowledgeBlockStart = "=== KNOWLEDGE BASE ==="
	knowledgeBlockEnd   = "=== END KNOWLEDGE BASE ==="
	toolBlockEnd        = "=== END TOOL RESULT ==="
)

var localeLanguages = map[string]string{
	"en": "English",
	"zh": "Simplified Chinese",
	"ms": "Malay",
	"ta": "Tamil",
}

var intentGuidance = map[domain.IntentType]string{
	domain.IntentRegulation: "The user is asking about rules or procedures. Answer from the knowledge base first, list concrete steps and fees, and mention where rules differ by licence class or engine size.",
	domain.IntentListing:    "The user is looking at a specific listing. Ground your answer in the listing details below and be balanced about its strengths and weaknesses.",
	domain.IntentMarket:     "The user is asking about prices or the market. Give ranges rather than single numbers and explain what drives the price (COE, age, mileage, demand).",
	domain.IntentTool:       "The user wants a figure or a lookup. Lead with the tool result, then explain how it was worked out and any assumptions.",
	domain.IntentGeneral:    "Answer helpfully. If the question is unrelated to motorcycles, keep the answer brief.",
}

// PromptInput is everything the system prompt is assembled from.
type PromptInput struct {
	Locale    string
	Intent    domain.ClassifiedIntent
	Context   *domain.ChatContext
	Knowledge []domain.ScoredChunk
	ToolName  string
	Tool      tools.Result
}

// LanguageForLocale maps a locale such as "zh-SG" to the language the
// answer must be written in. Unknown locales get English.
func LanguageForLocale(locale string) string {
	base := strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(base, "-_"); i >= 0 {
		base = base[:i]
	}
	if lang, ok := localeLanguages[base]; ok {
		return lang
	}
	return localeLanguages["en"]
}

// BuildSystemPrompt assembles the system message in a fixed order: persona,
// language, intent guidance, caller context, knowledge block, tool block.
func BuildSystemPrompt(in PromptInput) string {
	parts := []string{
		basePersona,
		fmt.Sprintf("Always respond in %s, even if the question or the reference material is in another language.", LanguageForLocale(in.Locale)),
	}

	if guidance, ok := intentGuidance[in.Intent.Type]; ok {
		parts = append(parts, guidance)
	}

	if ctxText := formatChatContext(in.Context); ctxText != "" {
		parts = append(parts, ctxText)
	}

	if len(in.Knowledge) > 0 {
		parts = append(parts, formatKnowledge(in.Knowledge))
	}

	if in.Tool != nil {
		parts = append(parts, fmt.Sprintf("=== TOOL RESULT: %s ===\nThis data was computed or looked up for this question. Use it exactly as given.\n%s\n%s",
			in.ToolName, in.Tool.Format(), toolBlockEnd))
	}

	return strings.Join(parts, "\n\n")
}

func formatKnowledge(chunks []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString(knowledgeBlockStart)
	b.WriteString("\nPrioritise the following reference material over general knowledge for anything specific to Singapore motorcycles. Cite the source names when you rely on them.\n")
	for i, sc := range chunks {
		fmt.Fprintf(&b, "\n[%d] %s / %s\n%s\n", i+1, sc.Chunk.Source, sc.Chunk.Section, sc.Chunk.Content)
	}
	b.WriteString(knowledgeBlockEnd)
	return b.String()
}

func formatChatContext(c *domain.ChatContext) string {
	if c == nil {
		return ""
	}

	var sections []string
	if c.Listing != nil {
		sections = append(sections, "The user is viewing this listing:\n"+formatListing(*c.Listing))
	}
	if len(c.Comparison) > 0 {
		lines := make([]string, 0, len(c.Comparison))
		for _, l := range c.Comparison {
			lines = append(lines, formatListing(l))
		}
		sections = append(sections, "The user is comparing these listings:\n"+strings.Join(lines, "\n"))
	}
	if len(c.Form) > 0 {
		keys := make([]string, 0, len(c.Form))
		for k := range c.Form {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("- %s: %s", k, c.Form[k]))
		}
		sections = append(sections, "The user is filling in a listing form with:\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

func formatListing(l domain.Listing) string {
	fields := []string{fmt.Sprintf("- %s (%s %s)", l.Title, l.Brand, l.Model)}
	if l.Year > 0 {
		fields = append(fields, fmt.Sprintf("year %d", l.Year))
	}
	fields = append(fields, fmt.Sprintf("price SGD %.0f", l.Price))
	if l.EngineCC > 0 {
		fields = append(fields, fmt.Sprintf("%dcc", l.EngineCC))
	}
	if l.LicenseClass != "" {
		fields = append(fields, "class "+l.LicenseClass)
	}
	if l.Mileage > 0 {
		fields = append(fields, fmt.Sprintf("%d km", l.Mileage))
	}
	if l.COEExpiry != nil {
		fields = append(fields, "COE expires "+l.COEExpiry.Format("2006-01-02"))
	}
	return strings.Join(fields, ", ")
}
