package pestcontrol

import (
	"cmp"
	"fmt"
	"slices"
)

// Plan is a scored treatment recommendation for one pest or disease.
type Plan struct {
	TreatmentType       string     `json:"treatment_type"`
	Category            string     `json:"category"`
	Target              string     `json:"target"`
	Entry               string     `json:"entry"`
	Methods             []string   `json:"methods"`
	Effectiveness       float64    `json:"effectiveness"`
	Cost                float64    `json:"cost"`
	EnvironmentalImpact float64    `json:"environmental_impact"`
	Suitability         float64    `json:"suitability_score"`
	Severity            int        `json:"severity_level"`
	Conditions          Conditions `json:"application_conditions"`
	Recommendations     []string   `json:"recommendations"`
}

// Suitability scores a treatment between 0 and 1 from its effectiveness,
// cost, environmental impact, severity fit and current conditions.
func Suitability(t Treatment, severity int, env Environment) float64 {
	score := 0.4 * t.Effectiveness
	score += 0.2 * max(0, (100-t.Cost)/100)
	score += 0.2 * (1 - t.EnvironmentalImpact)

	switch {
	case severity <= 2 && (t.Type == Biological || t.Type == Physical):
		score += 0.1
	case severity >= 4 && t.Type == Chemical:
		score += 0.1
	}
	if CheckConditions(t, env) {
		score += 0.1
	}
	return min(1, score)
}

// TreatmentPlans returns the applicable plans for target, best first. Types
// whose entry cannot be applied under env are left out.
func TreatmentPlans(category, target string, severity int, env Environment) []Plan {
	var plans []Plan
	for _, typ := range MethodOrder(category, severity) {
		t, ok := Lookup(category, typ, target)
		if !ok || !CheckConditions(t, env) {
			continue
		}
		plans = append(plans, Plan{
			TreatmentType:       typ,
			Category:            category,
			Target:              target,
			Entry:               t.Name,
			Methods:             slices.Clone(t.Methods),
			Effectiveness:       t.Effectiveness,
			Cost:                t.Cost,
			EnvironmentalImpact: t.EnvironmentalImpact,
			Suitability:         Suitability(t, severity, env),
			Severity:            severity,
			Conditions:          t.Conditions,
			Recommendations:     SpecificRecommendations(typ, target, severity, env),
		})
	}
	slices.SortStableFunc(plans, func(a, b Plan) int {
		return cmp.Compare(b.Suitability, a.Suitability)
	})
	return plans
}

var typeAdvice = map[string][]string{
	Biological: {
		"Choose a suitable biological agent and store it correctly",
		"Do not combine with chemical pesticides",
		"Release natural enemies when temperature and humidity suit them",
		"Provide habitat for natural enemy insects",
	},
	Physical: {
		"Inspect and maintain physical control equipment regularly",
		"Place traps and netting sensibly",
		"Clear trapped insects promptly",
		"Combine with improvements to the growing environment",
	},
	Chemical: {
		"Follow the label instructions strictly",
		"Prefer products with little effect on natural enemies",
		"Respect the pre-harvest safety interval",
		"Rotate products with different modes of action",
	},
}

// SpecificRecommendations returns practical advice for one plan.
func SpecificRecommendations(treatmentType, target string, severity int, env Environment) []string {
	recs := []string{fmt.Sprintf("Monitor how %s develops and inspect regularly", target)}
	recs = append(recs, typeAdvice[treatmentType]...)
	if severity >= 4 {
		recs = append(recs,
			"The problem is serious: combine several control methods",
			"Monitor more often and adjust the strategy promptly")
	}
	if env.Temperature != nil && *env.Temperature > 30 {
		recs = append(recs, "Under high temperature choose heat tolerant methods")
	}
	if env.Humidity != nil && *env.Humidity > 80 {
		recs = append(recs, "Under high humidity ventilate to stop disease spreading")
	}
	return recs
}
