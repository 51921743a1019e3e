package broadcast

import (
	"fmt"
	"strings"
	"time"

	"github.com/edgard/rojitobot/internal/config"
)

// BuildPrompt returns the update request for a cycle started at now.
func BuildPrompt(now time.Time, lang string) string {
	var b strings.Builder
	b.WriteString("Generate a comprehensive update with the following sections:\n\n")
	b.WriteString("1. SPORTS NEWS: Latest major sports news, scores and significant updates from the past 4 hours.\n")
	b.WriteString("2. MARKET UPDATE: Key financial markets, crypto trends and significant market movements.\n")
	b.WriteString("3. PRE-MATCH INSIGHTS: Analysis and betting insights for upcoming major sports events, if any.\n\n")
	b.WriteString("Format each section clearly and concisely. Let the reader know another update will be available in 24 hours.\n")
	fmt.Fprintf(&b, "Use this title: 📊 Rojito - IA experto en fijas Update | (%s)\n\n", now.UTC().Format(time.RFC1123))
	b.WriteString("Data freshness:\n")
	b.WriteString("- Search the web and use only information published in the last 24 hours.\n")
	b.WriteString("- Cross-check sources and prefer reputable outlets.\n")
	b.WriteString("- If there is no sports news from the last 4 hours, use the most recent within 24 hours and state the timeframe.\n")
	if lang != "" {
		fmt.Fprintf(&b, "\nRespond in %s.\n", config.LanguageName(lang))
	}
	return b.String()
}
