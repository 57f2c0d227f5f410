package traceability

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/farmwatch/farmwatch/internal/datastore"
)

// Timeline stages.
const (
	StagePlanting      = "planting"
	StageFertilization = "fertilization"
	StagePestControl   = "pest_control"
	StageHarvest       = "harvest"
	StageProcessing    = "processing"
	StagePackaging     = "packaging"
	StageTransport     = "transport"
)

// Compliance statuses.
const (
	Compliant    = "compliant"
	NonCompliant = "non_compliant"
)

// undatedSortKey places undated entries first.
const undatedSortKey = "1900-01-01"

// TimelineEntry is one dated production step.
type TimelineEntry struct {
	Date        string `json:"date"`
	Stage       string `json:"stage"`
	Description string `json:"description"`
	Details     any    `json:"details,omitempty"`
}

// InputItem is one fertilizer or pesticide application.
type InputItem struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Amount         float64 `json:"amount"`
	Unit           string  `json:"unit"`
	Date           string  `json:"date"`
	SafetyInterval int     `json:"safety_interval,omitempty"`
}

// InputSummary totals the agricultural inputs of a product.
type InputSummary struct {
	FertilizerCount     int                `json:"fertilizer_count"`
	PesticideCount      int                `json:"pesticide_count"`
	FertilizerTypes     []string           `json:"fertilizer_types"`
	PesticideTypes      []string           `json:"pesticide_types"`
	FertilizerTotals    map[string]float64 `json:"fertilizer_totals"` // by unit
	PesticideTotals     map[string]float64 `json:"pesticide_totals"`  // by unit
	Fertilizers         []InputItem        `json:"fertilizers"`
	Pesticides          []InputItem        `json:"pesticides"`
	ProcessingMaterials []string           `json:"processing_materials"`
}

// QualitySummary aggregates quality checks.
type QualitySummary struct {
	TotalChecks   int      `json:"total_checks"`
	PassedChecks  int      `json:"passed_checks"`
	FailedChecks  int      `json:"failed_checks"`
	PassRate      float64  `json:"pass_rate"`
	LatestGrade   string   `json:"latest_grade,omitempty"`
	QualityGrades []string `json:"quality_grades"`
	Defects       []string `json:"defects"`
	Certificates  []string `json:"certificates"`
}

// Compliance is the outcome of the compliance checks.
type Compliance struct {
	OverallStatus   string   `json:"overall_status"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// BasicInfo identifies the product in a report.
type BasicInfo struct {
	ProductID     string     `json:"product_id"`
	Location      string     `json:"location"`
	PlantingDate  *time.Time `json:"planting_date"`
	HarvestDate   *time.Time `json:"harvest_date"`
	PackagingDate *time.Time `json:"packaging_date"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Report is the full trace report of a product.
type Report struct {
	ProductID       string          `json:"product_id"`
	ReportDate      time.Time       `json:"report_date"`
	BasicInfo       BasicInfo       `json:"basic_information"`
	Timeline        []TimelineEntry `json:"production_timeline"`
	Inputs          InputSummary    `json:"input_materials"`
	Quality         QualitySummary  `json:"quality_summary"`
	Compliance      Compliance      `json:"compliance_check"`
	Recommendations []string        `json:"recommendations"`
}

// TraceReport loads a product and builds its report.
func (m *Manager) TraceReport(productID string) (*Report, error) {
	p, err := m.store.GetProduct(productID)
	if err != nil {
		return nil, err
	}
	return BuildReport(p, m.now()), nil
}

// BuildReport builds the trace report of p.
func BuildReport(p *datastore.ProductTraceability, now time.Time) *Report {
	return &Report{
		ProductID:  p.ProductID,
		ReportDate: now,
		BasicInfo: BasicInfo{
			ProductID:     p.ProductID,
			Location:      p.Location,
			PlantingDate:  p.PlantingDate,
			HarvestDate:   p.HarvestDate,
			PackagingDate: p.PackagingDate,
			CreatedAt:     p.CreatedAt,
		},
		Timeline:        Timeline(p),
		Inputs:          SummarizeInputs(p),
		Quality:         SummarizeQuality(p),
		Compliance:      CheckCompliance(p),
		Recommendations: Recommendations(p),
	}
}

func stageRecords(p *datastore.ProductTraceability, stage string) []datastore.ProcessingRecord {
	var out []datastore.ProcessingRecord
	for _, r := range p.ProcessingRecords {
		if r.ProcessingType == stage {
			out = append(out, r)
		}
	}
	return out
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Timeline lists the production steps of p in date order. Entries without a
// date come first.
func Timeline(p *datastore.ProductTraceability) []TimelineEntry {
	var tl []TimelineEntry

	if p.PlantingDate != nil {
		tl = append(tl, TimelineEntry{
			Date:        formatDate(p.PlantingDate),
			Stage:       StagePlanting,
			Description: fmt.Sprintf("Planting started at %s", or(p.Location, "an unknown location")),
			Details:     stageRecords(p, datastore.StagePlanting),
		})
	}
	for _, r := range p.FertilizerRecords {
		tl = append(tl, TimelineEntry{
			Date:        r.ApplicationDate,
			Stage:       StageFertilization,
			Description: fmt.Sprintf("Applied %s %g%s", or(r.FertilizerName, "fertilizer"), r.Amount, r.Unit),
			Details:     r,
		})
	}
	for _, r := range p.PesticideRecords {
		tl = append(tl, TimelineEntry{
			Date:        r.ApplicationDate,
			Stage:       StagePestControl,
			Description: fmt.Sprintf("Applied %s against %s", or(r.PesticideName, "pesticide"), or(r.TargetPest, "pests and diseases")),
			Details:     r,
		})
	}
	if p.HarvestDate != nil {
		tl = append(tl, TimelineEntry{
			Date:        formatDate(p.HarvestDate),
			Stage:       StageHarvest,
			Description: "Harvest completed",
			Details:     stageRecords(p, datastore.StageHarvest),
		})
	}
	for _, r := range p.ProcessingRecords {
		switch r.ProcessingType {
		case datastore.StagePlanting, datastore.StageHarvest, datastore.StagePackaging:
			continue
		}
		tl = append(tl, TimelineEntry{
			Date:        r.ProcessingDate,
			Stage:       StageProcessing,
			Description: fmt.Sprintf("%s - %s", r.ProcessingType, r.ProcessingMethod),
			Details:     r,
		})
	}
	if p.PackagingDate != nil {
		tl = append(tl, TimelineEntry{
			Date:        formatDate(p.PackagingDate),
			Stage:       StagePackaging,
			Description: "Packaging completed",
			Details:     stageRecords(p, datastore.StagePackaging),
		})
	}
	for _, r := range p.TransportRecords {
		tl = append(tl, TimelineEntry{
			Date:        r.DepartureDate,
			Stage:       StageTransport,
			Description: fmt.Sprintf("Shipped from %s to %s", r.DepartureLocation, r.Destination),
			Details:     r,
		})
	}

	slices.SortStableFunc(tl, func(a, b TimelineEntry) int {
		return cmp.Compare(or(a.Date, undatedSortKey), or(b.Date, undatedSortKey))
	})
	return tl
}

func appendUnique(list []string, v string) []string {
	if v == "" || slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

// SummarizeInputs totals the fertilizer and pesticide applications of p.
func SummarizeInputs(p *datastore.ProductTraceability) InputSummary {
	s := InputSummary{
		FertilizerCount:     len(p.FertilizerRecords),
		PesticideCount:      len(p.PesticideRecords),
		FertilizerTypes:     []string{},
		PesticideTypes:      []string{},
		FertilizerTotals:    map[string]float64{},
		PesticideTotals:     map[string]float64{},
		Fertilizers:         []InputItem{},
		Pesticides:          []InputItem{},
		ProcessingMaterials: []string{},
	}
	for _, r := range p.FertilizerRecords {
		s.FertilizerTypes = appendUnique(s.FertilizerTypes, r.FertilizerType)
		s.FertilizerTotals[r.Unit] += r.Amount
		s.Fertilizers = append(s.Fertilizers, InputItem{
			Name:   r.FertilizerName,
			Type:   r.FertilizerType,
			Amount: r.Amount,
			Unit:   r.Unit,
			Date:   r.ApplicationDate,
		})
	}
	for _, r := range p.PesticideRecords {
		s.PesticideTypes = appendUnique(s.PesticideTypes, r.ActiveIngredient)
		s.PesticideTotals[r.Unit] += r.Amount
		s.Pesticides = append(s.Pesticides, InputItem{
			Name:           r.PesticideName,
			Type:           r.ActiveIngredient,
			Amount:         r.Amount,
			Unit:           r.Unit,
			Date:           r.ApplicationDate,
			SafetyInterval: r.SafetyInterval,
		})
	}
	for _, r := range p.ProcessingRecords {
		s.ProcessingMaterials = append(s.ProcessingMaterials, r.EquipmentUsed...)
	}
	return s
}

// SummarizeQuality aggregates the quality checks of p.
func SummarizeQuality(p *datastore.ProductTraceability) QualitySummary {
	s := QualitySummary{
		TotalChecks:   len(p.QualityChecks),
		QualityGrades: []string{},
		Defects:       []string{},
		Certificates:  []string{},
	}
	for _, c := range p.QualityChecks {
		if c.PassStatus {
			s.PassedChecks++
		} else {
			s.FailedChecks++
		}
		if c.QualityGrade != "" {
			s.QualityGrades = append(s.QualityGrades, c.QualityGrade)
			s.LatestGrade = c.QualityGrade
		}
		s.Defects = append(s.Defects, c.DefectsFound...)
		s.Certificates = append(s.Certificates, c.Certificates...)
	}
	if s.TotalChecks > 0 {
		s.PassRate = float64(s.PassedChecks) / float64(s.TotalChecks)
	}
	return s
}

// CheckCompliance checks the ledger of p for missing records and pesticide
// safety intervals.
func CheckCompliance(p *datastore.ProductTraceability) Compliance {
	c := Compliance{OverallStatus: Compliant, Issues: []string{}, Recommendations: []string{}}

	for _, r := range p.PesticideRecords {
		if r.SafetyInterval <= 0 || r.ApplicationDate == "" {
			continue
		}
		name := or(r.PesticideName, "pesticide")
		c.Recommendations = append(c.Recommendations,
			fmt.Sprintf("Make sure the %d day safety interval of %s is respected", r.SafetyInterval, name))

		applied, err := time.Parse(DateLayout, r.ApplicationDate)
		if err != nil || p.HarvestDate == nil {
			continue
		}
		waited := int(p.HarvestDate.Sub(applied).Hours() / 24)
		if waited < r.SafetyInterval {
			c.Issues = append(c.Issues,
				fmt.Sprintf("Harvested %d days after applying %s, safety interval is %d days", waited, name, r.SafetyInterval))
			c.OverallStatus = NonCompliant
		}
	}

	if len(p.QualityChecks) == 0 {
		c.Issues = append(c.Issues, "Quality check records are missing")
		c.OverallStatus = NonCompliant
	}
	if p.PlantingDate == nil {
		c.Issues = append(c.Issues, "Planting date is missing")
	}
	if p.HarvestDate == nil {
		c.Issues = append(c.Issues, "Harvest date is missing")
	}
	return c
}

// Recommendations suggests how to improve the ledger of p.
func Recommendations(p *datastore.ProductTraceability) []string {
	var recs []string
	if len(p.FertilizerRecords) == 0 {
		recs = append(recs, "Complete the fertilizer records to improve traceability")
	}
	if len(p.QualityChecks) == 0 {
		recs = append(recs, "Add quality checks to assure product quality")
	}
	if len(p.PesticideRecords) > 0 {
		recs = append(recs, "Strictly respect pesticide safety intervals to keep the product safe")
	}
	return append(recs,
		"Keep records digitally to make tracing faster",
		"Standardize operating procedures so records stay consistent")
}
