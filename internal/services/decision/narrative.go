package decision

import (
	"fmt"
	"strings"

	"Sentinel/internal/domain/models"
)

const riskBanner = "RISK NOTICE: veto factor present. "

var bullishTerms = []string{
	"blind-buy",
	"main wave",
	"strong rally",
	"breakout",
	"bottom-fish",
	"golden pit",
	"iron bottom",
}

var forbiddenPairs = [][2]string{
	{"blind buy", "institutional distribution"},
	{"main wave", "capital withdrawal"},
	{"strong", "big outflow"},
	{"buy", "extreme risk"},
}

// FilterNarrative masks bullish wording once the verdict is vetoed.
func FilterNarrative(text string, vetoed bool) string {
	if !vetoed {
		return text
	}
	for _, w := range bullishTerms {
		text = strings.ReplaceAll(text, w, "[filtered:"+w+"]")
	}
	return riskBanner + text
}

// CheckContradiction reports every forbidden pair found together in parts.
func CheckContradiction(parts ...string) (bool, []string) {
	combined := strings.ToLower(strings.Join(parts, " "))
	var found []string
	for _, p := range forbiddenPairs {
		if strings.Contains(combined, p[0]) && strings.Contains(combined, p[1]) {
			found = append(found, fmt.Sprintf("contradiction: %q and %q together", p[0], p[1]))
		}
	}
	return len(found) > 0, found
}

// UnifiedConclusion renders one line of text for the verdict. It is
// display only.
func UnifiedConclusion(v models.Verdict, contradictions []string) string {
	switch {
	case len(contradictions) > 0 && v.IsVetoed:
		return fmt.Sprintf("FINAL VERDICT: %s\nreason: %s\n%s", v.Action, v.PrimaryReason, contradictions[0])
	case len(contradictions) > 0:
		return fmt.Sprintf("VERDICT: %s\nweighing: %s", v.Action, v.PrimaryReason)
	case v.IsVetoed:
		reasons := v.VetoReasons
		if len(reasons) > 2 {
			reasons = reasons[:2]
		}
		return fmt.Sprintf("FINAL VERDICT: %s\nveto factors: %s", v.Action, strings.Join(reasons, "; "))
	}
	return fmt.Sprintf("SUMMARY: %s\n%s", v.Action, v.PrimaryReason)
}

// Narrate checks the module texts for contradictions, renders the
// conclusion and filters it when vetoed.
func Narrate(v models.Verdict, parts ...string) (string, []string) {
	_, contradictions := CheckContradiction(parts...)
	text := UnifiedConclusion(v, contradictions)
	return FilterNarrative(text, v.IsVetoed), contradictions
}
