package report

import (
	"fmt"
	"io"
	"strings"

	"evsales/internal/analytics"
)

// Narrative explains what a chart is for and how to read it.
type Narrative struct {
	Title     string   `json:"title"`
	Purpose   string   `json:"purpose"`
	KeyPoints []string `json:"key_points"`
}

var narratives = map[analytics.Kind]Narrative{
	analytics.KindMonthlyDeliveries: {
		Title:   "Monthly deliveries trend",
		Purpose: "See how monthly Estimated_Deliveries rise and fall over time.",
		KeyPoints: []string{
			"Find the periods where sales jumped or dropped sharply",
			"Check whether the long-run trend is up or down",
			"Line the turning points up with launches, policy changes or the economic cycle",
		},
	},
	analytics.KindProductionVsDeliveries: {
		Title:   "Production vs deliveries over time",
		Purpose: "Compare how production and deliveries move over the same period and whether supply keeps up with demand.",
		KeyPoints: []string{
			"Check whether production stays consistently above or below deliveries",
			"Look for possible shortages (deliveries > production) or inventory build-up (production > deliveries)",
			"Use the correlation between the two series to judge supply and demand balance",
		},
	},
	analytics.KindAveragePrice: {
		Title:   "Average selling price over time",
		Purpose: "See how the average selling price (Avg_Price_USD) changes over time.",
		KeyPoints: []string{
			"Check whether new models, options or exchange rates shift the price level",
			"Tell a move upmarket apart from a push into cheaper trims",
			"Relate price moves to the deliveries trend",
		},
	},
	analytics.KindModelShare: {
		Title:   "Market share by model (stacked)",
		Purpose: "See how each model's share of deliveries changes from month to month.",
		KeyPoints: []string{
			"Spot when a model becomes the main seller",
			"Watch older models give way to new ones",
			"Judge whether sales depend on one model or are spread across the lineup",
		},
	},
	analytics.KindBatteryRange: {
		Title:   "Battery capacity and range over time",
		Purpose: "See how battery capacity and range per charge have improved together.",
		KeyPoints: []string{
			"Check whether larger batteries translate directly into longer range",
			"Find when efficiency gains appear (more range for the same capacity)",
			"Relate the pace of technical progress to the product strategy",
		},
	},
	analytics.KindInfraVsSales: {
		Title:   "Charging infrastructure vs sales over time",
		Purpose: "See how closely the growth in charging stations is tied to deliveries.",
		KeyPoints: []string{
			"Check whether deliveries grow where the charging network grows fast",
			"Look for periods where infrastructure grew while sales stalled",
			"Estimate how much the charging strategy contributes to demand",
		},
	},
}

// NarrativeFor returns the description of an analysis.
func NarrativeFor(kind analytics.Kind) (Narrative, bool) {
	n, ok := narratives[kind]
	return n, ok
}

const rule = 72

// WriteNarrative prints a framed description block.
func WriteNarrative(w io.Writer, n Narrative, region string) {
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", rule))
	fmt.Fprintf(w, "[Chart] %s%s\n", n.Title, regionParen(region))
	fmt.Fprintf(w, "- Purpose: %s\n", n.Purpose)
	fmt.Fprintln(w, "- Key points:")
	for _, p := range n.KeyPoints {
		fmt.Fprintf(w, "  • %s\n", p)
	}
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", rule))
}

func regionParen(region string) string {
	if region == "" {
		return ""
	}
	return " (" + region + ")"
}

func regionSuffix(region string) string {
	if region == "" {
		return ""
	}
	return " - " + region
}
