package datastore

import (
	"time"
)

// EnvironmentData is one sensor reading. Nil measurements were not reported.
type EnvironmentData struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Timestamp      time.Time `gorm:"index;not null" json:"timestamp"`
	Temperature    *float64  `json:"temperature"`
	Humidity       *float64  `json:"humidity"`
	SoilMoisture   *float64  `json:"soil_moisture"`
	LightIntensity *float64  `json:"light_intensity"`
	WindSpeed      *float64  `json:"wind_speed"`
	Rainfall       *float64  `json:"rainfall"`
	AirPressure    *float64  `json:"air_pressure"`
	Location       string    `gorm:"size:100;index" json:"location"`
	SensorID       string    `gorm:"size:50" json:"sensor_id"`
}

// PestDiseaseData is an observed pest or disease outbreak.
type PestDiseaseData struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Timestamp       time.Time `gorm:"index" json:"timestamp"`
	PestType        string    `gorm:"size:100" json:"pest_type"`
	DiseaseType     string    `gorm:"size:100" json:"disease_type"`
	SeverityLevel   int       `json:"severity_level"` // 1-5
	Location        string    `gorm:"size:100" json:"location"`
	AffectedArea    float64   `json:"affected_area"`
	DetectionMethod string    `gorm:"size:50" json:"detection_method"`
	Images          []string  `gorm:"serializer:json" json:"images"`
}

// Prediction types
const (
	PredictionPest    = "pest"
	PredictionDisease = "disease"
)

// PredictionResult is a risk estimate for one pest or disease.
type PredictionResult struct {
	ID                   uint               `gorm:"primaryKey" json:"id"`
	Timestamp            time.Time          `gorm:"index" json:"timestamp"`
	PredictionType       string             `gorm:"size:50;index" json:"prediction_type"` // pest or disease
	Target               string             `gorm:"size:100" json:"target"`               // e.g. aphids, powdery_mildew
	RiskLevel            float64            `json:"risk_level"`                           // 0-1
	Confidence           float64            `json:"confidence"`
	EnvironmentalFactors map[string]float64 `gorm:"serializer:json" json:"environmental_factors"`
	Location             string             `gorm:"size:100" json:"location"`
	ModelVersion         string             `gorm:"size:20" json:"model_version"`
}

// Warning statuses
const (
	WarningActive   = "active"
	WarningResolved = "resolved"
)

// WarningRecord is a persisted warning.
type WarningRecord struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Timestamp   time.Time  `gorm:"index" json:"timestamp"`
	WarningType string     `gorm:"size:50;index:idx_warning_type_location" json:"warning_type"`
	Severity    string     `gorm:"size:20" json:"severity"` // low, medium, high
	Message     string     `gorm:"type:text" json:"message"`
	Location    string     `gorm:"size:100;index:idx_warning_type_location" json:"location"`
	Status      string     `gorm:"size:20;default:active;index" json:"status"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	// Channels enabled by recipients at the time of the warning. Nothing is sent.
	SentNotifications []string `gorm:"serializer:json" json:"sent_notifications"`
}

// TreatmentPlan is a recommended treatment for an outbreak.
type TreatmentPlan struct {
	ID                  uint             `gorm:"primaryKey" json:"id"`
	PestDiseaseID       *uint            `gorm:"index" json:"pest_disease_id,omitempty"`
	PestDisease         *PestDiseaseData `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	TreatmentType       string           `gorm:"size:50" json:"treatment_type"` // biological, physical, chemical
	TreatmentMethod     string           `gorm:"type:text" json:"treatment_method"`
	Effectiveness       float64          `json:"effectiveness"`
	Cost                float64          `json:"cost"`
	EnvironmentalImpact float64          `json:"environmental_impact"`
	Suitability         float64          `json:"suitability"`
	CreatedAt           time.Time        `json:"created_at"`
}

// MarketData is a stored market observation for a product on a platform.
type MarketData struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Timestamp      time.Time `gorm:"index" json:"timestamp"`
	ProductName    string    `gorm:"size:100" json:"product_name"`
	Platform       string    `gorm:"size:50" json:"platform"`
	Price          float64   `json:"price"`
	SalesVolume    int       `json:"sales_volume"`
	Rating         float64   `json:"rating"`
	ReviewsCount   int       `json:"reviews_count"`
	Keywords       []string  `gorm:"serializer:json" json:"keywords"`
	SentimentScore float64   `json:"sentiment_score"`
}

// FertilizerRecord is one fertilizer application.
type FertilizerRecord struct {
	Timestamp         time.Time      `json:"timestamp"`
	ApplicationDate   string         `json:"application_date"`
	FertilizerType    string         `json:"fertilizer_type"`
	FertilizerName    string         `json:"fertilizer_name"`
	Amount            float64        `json:"amount"`
	Unit              string         `json:"unit"`
	Method            string         `json:"method"`
	Operator          string         `json:"operator"`
	WeatherConditions map[string]any `json:"weather_conditions,omitempty"`
	Notes             string         `json:"notes"`
}

// PesticideRecord is one pesticide application.
type PesticideRecord struct {
	Timestamp             time.Time      `json:"timestamp"`
	ApplicationDate       string         `json:"application_date"`
	PesticideName         string         `json:"pesticide_name"`
	ActiveIngredient      string         `json:"active_ingredient"`
	Concentration         string         `json:"concentration"`
	Amount                float64        `json:"amount"`
	Unit                  string         `json:"unit"`
	TargetPest            string         `json:"target_pest"`
	ApplicationMethod     string         `json:"application_method"`
	SafetyInterval        int            `json:"safety_interval"` // days
	Operator              string         `json:"operator"`
	OperatorCertification string         `json:"operator_certification"`
	WeatherConditions     map[string]any `json:"weather_conditions,omitempty"`
	Notes                 string         `json:"notes"`
}

// Processing stages recorded in ProcessingRecord.ProcessingType besides free-form processing.
const (
	StagePlanting  = "planting"
	StageHarvest   = "harvest"
	StagePackaging = "packaging"
)

// ProcessingRecord covers planting, harvest, processing and packaging steps.
// Stage specific attributes go in Details.
type ProcessingRecord struct {
	Timestamp        time.Time      `json:"timestamp"`
	ProcessingType   string         `json:"processing_type"`
	ProcessingDate   string         `json:"processing_date"`
	ProcessingMethod string         `json:"processing_method"`
	EquipmentUsed    []string       `json:"equipment_used,omitempty"`
	Temperature      float64        `json:"temperature,omitempty"`
	Humidity         float64        `json:"humidity,omitempty"`
	ProcessingTime   float64        `json:"processing_time,omitempty"`
	InputAmount      float64        `json:"input_amount,omitempty"`
	OutputAmount     float64        `json:"output_amount,omitempty"`
	LossRate         float64        `json:"loss_rate,omitempty"`
	Operator         string         `json:"operator"`
	Details          map[string]any `json:"details,omitempty"`
	Notes            string         `json:"notes"`
}

// TransportRecord is one shipment leg.
type TransportRecord struct {
	Timestamp           time.Time      `json:"timestamp"`
	DepartureDate       string         `json:"departure_date"`
	ArrivalDate         string         `json:"arrival_date"`
	DepartureLocation   string         `json:"departure_location"`
	Destination         string         `json:"destination"`
	TransportMethod     string         `json:"transport_method"`
	VehicleInfo         map[string]any `json:"vehicle_info,omitempty"`
	DriverInfo          map[string]any `json:"driver_info,omitempty"`
	TransportConditions map[string]any `json:"transport_conditions,omitempty"`
	RouteInfo           []string       `json:"route_info,omitempty"`
	Notes               string         `json:"notes"`
}

// QualityCheck is one inspection result.
type QualityCheck struct {
	Timestamp         time.Time      `json:"timestamp"`
	CheckDate         string         `json:"check_date"`
	CheckType         string         `json:"check_type"`
	CheckStage        string         `json:"check_stage"`
	Inspector         string         `json:"inspector"`
	InspectionItems   []string       `json:"inspection_items,omitempty"`
	TestResults       map[string]any `json:"test_results,omitempty"`
	QualityGrade      string         `json:"quality_grade"`
	PassStatus        bool           `json:"pass_status"`
	DefectsFound      []string       `json:"defects_found,omitempty"`
	CorrectiveActions []string       `json:"corrective_actions,omitempty"`
	Certificates      []string       `json:"certificates,omitempty"`
	Notes             string         `json:"notes"`
}

// ProductTraceability is the ledger of one product batch. Record slices are append-only.
type ProductTraceability struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	ProductID         string             `gorm:"size:100;uniqueIndex;not null" json:"product_id"`
	QRCode            string             `gorm:"type:text" json:"qr_code"`
	PlantingDate      *time.Time         `gorm:"index" json:"planting_date"`
	HarvestDate       *time.Time         `json:"harvest_date"`
	PackagingDate     *time.Time         `json:"packaging_date"`
	Location          string             `gorm:"size:100;index" json:"location"`
	FertilizerRecords []FertilizerRecord `gorm:"serializer:json" json:"fertilizer_records"`
	PesticideRecords  []PesticideRecord  `gorm:"serializer:json" json:"pesticide_records"`
	ProcessingRecords []ProcessingRecord `gorm:"serializer:json" json:"processing_records"`
	TransportRecords  []TransportRecord  `gorm:"serializer:json" json:"transport_records"`
	QualityChecks     []QualityCheck     `gorm:"serializer:json" json:"quality_checks"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// User roles
const (
	RoleAdmin  = "admin"
	RoleUser   = "user"
	RoleViewer = "viewer"
)

// User is a farm staff member who may receive warnings.
type User struct {
	ID                   uint                  `gorm:"primaryKey" json:"id"`
	Username             string                `gorm:"size:80;uniqueIndex;not null" json:"username"`
	Email                string                `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash         string                `gorm:"size:128" json:"-"`
	Role                 string                `gorm:"size:20;default:user" json:"role"`
	Phone                string                `gorm:"size:20" json:"phone"`
	IsActive             bool                  `json:"is_active"`
	CreatedAt            time.Time             `json:"created_at"`
	NotificationSettings []NotificationSetting `gorm:"foreignKey:UserID" json:"notification_settings,omitempty"`
}

// Notification channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
)

// NotificationSetting is a user's preference for one channel.
type NotificationSetting struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	UserID            uint               `gorm:"index" json:"user_id"`
	NotificationType  string             `gorm:"size:50" json:"notification_type"` // email, sms, push
	IsEnabled         bool               `json:"is_enabled"`
	ThresholdSettings map[string]float64 `gorm:"serializer:json" json:"threshold_settings"`
}

// Device states
const (
	DeviceOnline  = "online"
	DeviceOffline = "offline"
	DeviceError   = "error"
)

// DeviceStatus is the last known state of a sensor.
type DeviceStatus struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SensorName  string    `gorm:"size:50;uniqueIndex;not null" json:"sensor_name"`
	Pin         int       `json:"pin"`
	Type        string    `gorm:"size:50" json:"type"`
	Status      string    `gorm:"size:20" json:"status"`
	LastReading *float64  `json:"last_reading"`
	LastError   string    `gorm:"type:text" json:"last_error,omitempty"`
	LastSeen    time.Time `json:"last_seen"`
}

// allModels lists the models migrated at startup.
func allModels() []any {
	return []any{
		&EnvironmentData{},
		&PestDiseaseData{},
		&PredictionResult{},
		&WarningRecord{},
		&TreatmentPlan{},
		&MarketData{},
		&ProductTraceability{},
		&User{},
		&NotificationSetting{},
		&DeviceStatus{},
	}
}
