package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/newscheck/internal/domain/analysis"
)

// GetSystemPrompt sets the model role and the reply contract.
func GetSystemPrompt() string {
	return `You are a multilingual fake news detection expert. You must produce one valid JSON object only (no markdown, no commentary). Do not include code fences.

Requirements:
- Output must be a single JSON object with exactly the keys verdict, reason, credibility_score.
- verdict is one of "Fake", "Real", "Uncertain".
- credibility_score is an integer from 0 (certainly false) to 100 (certainly credible).
- reason is a short explanation of the verdict.`
}

// GetUserPrompt builds the user message around the article text.
func GetUserPrompt(text string, lang analysis.Language) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following news text and provide your assessment.\n\n")
	fmt.Fprintf(&b, "If the news is not in %s, first translate it to %s.\n\n", lang, lang)
	fmt.Fprintf(&b, "Respond strictly in this JSON format (use %s for the reason):\n\n", lang)
	b.WriteString("{\n")
	b.WriteString(`  "verdict": "Fake" or "Real" or "Uncertain",` + "\n")
	fmt.Fprintf(&b, "  \"reason\": \"Short explanation in %s\",\n", lang)
	b.WriteString(`  "credibility_score": 0-100` + "\n")
	b.WriteString("}\n\n")
	b.WriteString("News text to analyze:\n\"\"\"\n")
	b.WriteString(text)
	b.WriteString("\n\"\"\"\n")
	return b.String()
}

// Builder implements analysis.PromptBuilder.
type Builder struct{}

func NewBuilder() *Builder { return &Builder{} }

func (Builder) SystemPrompt() string { return GetSystemPrompt() }

// Build returns the same prompt for the same text and language.
func (Builder) Build(text string, lang analysis.Language) (string, error) {
	if !lang.Valid() {
		return "", fmt.Errorf("%w: %q", analysis.ErrUnsupportedLanguage, lang)
	}
	return GetUserPrompt(text, lang), nil
}
