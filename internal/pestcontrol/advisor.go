package pestcontrol

import (
	"cmp"
	"encoding/json"
	"slices"
	"time"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
	"github.com/farmwatch/farmwatch/internal/preprocess"
)

// Defaults used when no environment is known.
const (
	DefaultTemperature = 25.0
	DefaultHumidity    = 60.0
)

// Store is the datastore subset the advisor uses.
type Store interface {
	LatestEnvironmentData() (*datastore.EnvironmentData, error)
	SaveTreatmentPlans(plans []datastore.TreatmentPlan) error
}

// IntegratedPlan combines pest and disease plans with general advice.
type IntegratedPlan struct {
	Timestamp         time.Time   `json:"timestamp"`
	Environment       Environment `json:"environmental_conditions"`
	PestType          string      `json:"pest_type,omitempty"`
	DiseaseType       string      `json:"disease_type,omitempty"`
	Severity          int         `json:"severity_level"`
	PestTreatments    []Plan      `json:"pest_treatments"`
	DiseaseTreatments []Plan      `json:"disease_treatments"`
	PredictedType     string      `json:"predicted_treatment_type"`
	Recommendations   []string    `json:"integrated_recommendations"`
}

// Advisor produces integrated treatment plans.
type Advisor struct {
	store Store
	tree  *DecisionTree
	now   func() time.Time
	log   logger.Logger
}

// AdvisorOption configures an Advisor.
type AdvisorOption func(*Advisor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) AdvisorOption {
	return func(a *Advisor) { a.now = now }
}

// NewAdvisor trains the decision tree and returns an advisor. store may be
// nil, in which case plans cannot be saved and the environment defaults apply.
func NewAdvisor(store Store, opts ...AdvisorOption) *Advisor {
	a := &Advisor{store: store, now: time.Now, log: GetLogger()}
	for _, opt := range opts {
		opt(a)
	}
	start := time.Now()
	a.tree = TrainDecisionTree()
	a.log.Debug("treatment decision tree trained",
		logger.Int("depth", a.tree.Depth()),
		logger.Duration("duration", time.Since(start)))
	return a
}

// PredictTreatmentType returns the tree's treatment type for the conditions.
func (a *Advisor) PredictTreatmentType(temperature, humidity float64, severity int, season string) string {
	return a.tree.Predict(temperature, humidity, severity, season)
}

// CurrentEnvironment returns conditions from the latest reading, with
// defaults for anything unknown.
func (a *Advisor) CurrentEnvironment() Environment {
	var env Environment
	if a.store != nil {
		r, err := a.store.LatestEnvironmentData()
		switch {
		case err == nil:
			env.Temperature = r.Temperature
			env.Humidity = r.Humidity
		case !errors.IsNotFound(err):
			a.log.Warn("failed to load latest reading", logger.Error(err))
		}
	}
	return a.withDefaults(env)
}

func (a *Advisor) withDefaults(env Environment) Environment {
	if env.Temperature == nil {
		t := DefaultTemperature
		env.Temperature = &t
	}
	if env.Humidity == nil {
		h := DefaultHumidity
		env.Humidity = &h
	}
	if env.Season == "" {
		env.Season = preprocess.SeasonOf(a.now().Month())
	}
	return env
}

// GenerateIntegratedPlan builds plans for the pest and/or disease at the
// given severity. A nil env uses the current environment.
func (a *Advisor) GenerateIntegratedPlan(pestType, diseaseType string, severity int, env *Environment) (*IntegratedPlan, error) {
	if severity < 1 || severity > 5 {
		return nil, errors.Newf("severity level %d out of range 1-5", severity).
			Component("pestcontrol").
			Category(errors.CategoryValidation).
			Build()
	}

	var e Environment
	if env == nil {
		e = a.CurrentEnvironment()
	} else {
		e = a.withDefaults(*env)
	}

	plan := &IntegratedPlan{
		Timestamp:         a.now(),
		Environment:       e,
		PestType:          pestType,
		DiseaseType:       diseaseType,
		Severity:          severity,
		PestTreatments:    []Plan{},
		DiseaseTreatments: []Plan{},
		PredictedType:     a.tree.Predict(*e.Temperature, *e.Humidity, severity, e.Season),
	}
	if pestType != "" {
		plan.PestTreatments = TreatmentPlans(CategoryPest, pestType, severity, e)
	}
	if diseaseType != "" {
		plan.DiseaseTreatments = TreatmentPlans(CategoryDisease, diseaseType, severity, e)
	}
	plan.Recommendations = IntegratedRecommendations(severity, e, plan.PredictedType)

	a.log.Info("treatment plan generated",
		logger.String("pest_type", pestType),
		logger.String("disease_type", diseaseType),
		logger.Int("severity", severity),
		logger.Int("pest_plans", len(plan.PestTreatments)),
		logger.Int("disease_plans", len(plan.DiseaseTreatments)),
		logger.String("predicted_type", plan.PredictedType))
	return plan, nil
}

// IntegratedRecommendations returns general advice for the situation.
func IntegratedRecommendations(severity int, env Environment, predictedType string) []string {
	recs := []string{
		"Build an integrated control system that puts biological control first",
		"Monitor pest and disease development regularly",
	}
	if predictedType != "" {
		recs = append(recs, "The decision model favours "+predictedType+" control for these conditions")
	}
	if severity >= 4 {
		recs = append(recs,
			"The problem is serious: act immediately",
			"Chemical control combined with other methods may be needed")
	} else {
		recs = append(recs, "The problem is mild: prefer environmentally friendly methods")
	}

	temp, hum := DefaultTemperature, DefaultHumidity
	if env.Temperature != nil {
		temp = *env.Temperature
	}
	if env.Humidity != nil {
		hum = *env.Humidity
	}
	if temp > 30 {
		recs = append(recs,
			"Under high temperature choose heat tolerant methods",
			"Avoid spraying during the hottest hours")
	}
	if hum > 80 {
		recs = append(recs,
			"Under high humidity ventilate to stop disease spreading",
			"Dehumidifiers may be needed")
	}

	switch env.Season {
	case preprocess.SeasonSpring:
		recs = append(recs,
			"Spring is the key period for pest and disease control",
			"Strengthen prevention to reduce later pressure")
	case preprocess.SeasonSummer:
		recs = append(recs,
			"Summer heat and humidity favour disease: keep watch",
			"Remove sources of pests and disease promptly")
	case preprocess.SeasonAutumn:
		recs = append(recs,
			"Control overwintering pests in autumn",
			"Clear crop residue from the field")
	}

	return append(recs,
		"Combine cultural, biological, physical and chemical control",
		"Maintain long-term monitoring",
		"Record control results and refine the strategy")
}

// SavePlan persists the best top plans of an integrated plan, linked to an
// outbreak record when pestDiseaseID is set. top <= 0 saves all of them.
func (a *Advisor) SavePlan(plan *IntegratedPlan, pestDiseaseID *uint, top int) ([]datastore.TreatmentPlan, error) {
	if a.store == nil {
		return nil, errors.Newf("no datastore configured").
			Component("pestcontrol").
			Category(errors.CategoryState).
			Build()
	}
	if plan == nil {
		return nil, errors.ValidationError("treatment plan is nil")
	}

	all := slices.Concat(plan.PestTreatments, plan.DiseaseTreatments)
	slices.SortStableFunc(all, func(x, y Plan) int {
		return cmp.Compare(y.Suitability, x.Suitability)
	})
	if top > 0 && len(all) > top {
		all = all[:top]
	}
	if len(all) == 0 {
		return nil, nil
	}

	rows := make([]datastore.TreatmentPlan, 0, len(all))
	for _, p := range all {
		methods, err := json.Marshal(p.Methods)
		if err != nil {
			return nil, errors.New(err).
				Component("pestcontrol").
				Category(errors.CategoryTreatment).
				Context("operation", "encode_methods").
				Build()
		}
		rows = append(rows, datastore.TreatmentPlan{
			PestDiseaseID:       pestDiseaseID,
			TreatmentType:       p.TreatmentType,
			TreatmentMethod:     string(methods),
			Effectiveness:       p.Effectiveness,
			Cost:                p.Cost,
			EnvironmentalImpact: p.EnvironmentalImpact,
			Suitability:         p.Suitability,
		})
	}
	if err := a.store.SaveTreatmentPlans(rows); err != nil {
		return nil, err
	}
	a.log.Info("treatment plans saved", logger.Int("count", len(rows)))
	return rows, nil
}
