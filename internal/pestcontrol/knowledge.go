// Package pestcontrol recommends green pest and disease control plans from a
// static treatment knowledge base and a decision tree.
package pestcontrol

import (
	"slices"

	"github.com/farmwatch/farmwatch/internal/preprocess"
)

// Problem categories.
const (
	CategoryPest    = "pest"
	CategoryDisease = "disease"
)

// Treatment types.
const (
	Biological = "biological"
	Physical   = "physical"
	Chemical   = "chemical"
)

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Conditions are the environmental conditions a treatment needs.
type Conditions struct {
	Temperature Range    `json:"temperature"`
	Humidity    Range    `json:"humidity"`
	Seasons     []string `json:"seasons"`
}

// Treatment is one knowledge base entry.
type Treatment struct {
	Category            string     `json:"category"`
	Type                string     `json:"treatment_type"`
	Name                string     `json:"name"`
	Methods             []string   `json:"methods"`
	Effectiveness       float64    `json:"effectiveness"`
	Cost                float64    `json:"cost"`
	EnvironmentalImpact float64    `json:"environmental_impact"`
	Conditions          Conditions `json:"application_conditions"`
}

var (
	warmSeasons = []string{preprocess.SeasonSpring, preprocess.SeasonSummer}
	growSeasons = []string{preprocess.SeasonSpring, preprocess.SeasonSummer, preprocess.SeasonAutumn}
	everySeason = []string{preprocess.SeasonSpring, preprocess.SeasonSummer, preprocess.SeasonAutumn, preprocess.SeasonWinter}
)

var knowledgeBase = []Treatment{
	{
		Category: CategoryPest, Type: Biological, Name: "aphids",
		Methods:       []string{"Release ladybirds", "Release lacewings", "Apply entomopathogenic fungi"},
		Effectiveness: 0.75, Cost: 30, EnvironmentalImpact: 0.1,
		Conditions: Conditions{Range{15, 30}, Range{40, 80}, warmSeasons},
	},
	{
		Category: CategoryPest, Type: Biological, Name: "spider_mites",
		Methods:       []string{"Release predatory mites", "Apply Bacillus thuringiensis"},
		Effectiveness: 0.70, Cost: 25, EnvironmentalImpact: 0.1,
		Conditions: Conditions{Range{20, 35}, Range{30, 70}, growSeasons},
	},
	{
		Category: CategoryPest, Type: Biological, Name: "scale_insects",
		Methods:       []string{"Release parasitic wasps", "Apply Beauveria bassiana"},
		Effectiveness: 0.65, Cost: 35, EnvironmentalImpact: 0.1,
		Conditions: Conditions{Range{18, 28}, Range{50, 80}, warmSeasons},
	},
	{
		Category: CategoryPest, Type: Physical, Name: "general_pests",
		Methods:       []string{"Insect netting", "Sticky traps", "Insect light traps"},
		Effectiveness: 0.60, Cost: 20, EnvironmentalImpact: 0.05,
		Conditions: Conditions{Range{10, 40}, Range{20, 90}, growSeasons},
	},
	{
		Category: CategoryPest, Type: Physical, Name: "flying_insects",
		Methods:       []string{"Insect light traps", "Pheromone traps", "Reflective mulch film"},
		Effectiveness: 0.55, Cost: 25, EnvironmentalImpact: 0.05,
		Conditions: Conditions{Range{12, 35}, Range{30, 80}, growSeasons},
	},
	{
		Category: CategoryPest, Type: Chemical, Name: "severe_infestation",
		Methods:       []string{"Low-toxicity pesticides", "Biopesticides", "Botanical pesticides"},
		Effectiveness: 0.90, Cost: 40, EnvironmentalImpact: 0.6,
		Conditions: Conditions{Range{10, 35}, Range{20, 90}, growSeasons},
	},
	{
		Category: CategoryDisease, Type: Biological, Name: "powdery_mildew",
		Methods:       []string{"Bacillus subtilis", "Trichoderma", "Antagonistic yeasts"},
		Effectiveness: 0.70, Cost: 25, EnvironmentalImpact: 0.1,
		Conditions: Conditions{Range{15, 30}, Range{40, 70}, warmSeasons},
	},
	{
		Category: CategoryDisease, Type: Biological, Name: "bacterial_spot",
		Methods:       []string{"Antagonistic bacteria", "Biological agents"},
		Effectiveness: 0.65, Cost: 30, EnvironmentalImpact: 0.1,
		Conditions: Conditions{Range{18, 28}, Range{50, 80}, growSeasons},
	},
	{
		Category: CategoryDisease, Type: Physical, Name: "general_diseases",
		Methods:       []string{"Ventilate to lower humidity", "Prune infected branches", "Improve the soil"},
		Effectiveness: 0.50, Cost: 15, EnvironmentalImpact: 0.05,
		Conditions: Conditions{Range{5, 40}, Range{20, 90}, everySeason},
	},
	{
		Category: CategoryDisease, Type: Chemical, Name: "severe_disease",
		Methods:       []string{"Copper fungicides", "Biofungicides", "Botanical fungicides"},
		Effectiveness: 0.85, Cost: 35, EnvironmentalImpact: 0.5,
		Conditions: Conditions{Range{10, 35}, Range{20, 90}, growSeasons},
	},
}

// KnowledgeBase returns a copy of all treatment entries.
func KnowledgeBase() []Treatment {
	out := make([]Treatment, len(knowledgeBase))
	copy(out, knowledgeBase)
	return out
}

func find(category, treatmentType, name string) (Treatment, bool) {
	for _, t := range knowledgeBase {
		if t.Category == category && t.Type == treatmentType && t.Name == name {
			return t, true
		}
	}
	return Treatment{}, false
}

// Lookup returns the entry for name under the given category and type,
// falling back to the general entry and then the severe-case entry.
func Lookup(category, treatmentType, name string) (Treatment, bool) {
	general, severe := "general_pests", "severe_infestation"
	if category == CategoryDisease {
		general, severe = "general_diseases", "severe_disease"
	}
	for _, n := range []string{name, general, severe} {
		if t, ok := find(category, treatmentType, n); ok {
			return t, true
		}
	}
	return Treatment{}, false
}

// Environment is the current field situation. Nil measurements and an empty
// season are not checked.
type Environment struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Season      string   `json:"season,omitempty"`
}

// CheckConditions reports whether env satisfies the entry's temperature,
// humidity and season conditions.
func CheckConditions(t Treatment, env Environment) bool {
	c := t.Conditions
	if env.Temperature != nil && !c.Temperature.Contains(*env.Temperature) {
		return false
	}
	if env.Humidity != nil && !c.Humidity.Contains(*env.Humidity) {
		return false
	}
	if env.Season != "" && !slices.Contains(c.Seasons, env.Season) {
		return false
	}
	return true
}

// MethodOrder returns the treatment types to consider for a severity level,
// in preference order.
func MethodOrder(category string, severity int) []string {
	switch {
	case severity <= 2 && category == CategoryDisease:
		return []string{Physical, Biological}
	case severity <= 2:
		return []string{Biological, Physical}
	case severity <= 4:
		return []string{Biological, Physical, Chemical}
	default:
		return []string{Chemical, Biological, Physical}
	}
}
