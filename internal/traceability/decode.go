package traceability

import (
	"encoding/json"
	"slices"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// RecordKinds are the record names accepted by AddRecordJSON.
var RecordKinds = []string{
	"planting", "harvest", "processing", "packaging",
	"fertilizer", "pesticide", "transport", "quality",
}

// AddRecordJSON decodes data as the record type named by kind and appends
// it to the product ledger.
func (m *Manager) AddRecordJSON(productID, kind string, data []byte) error {
	var add func(string, []byte) error
	switch kind {
	case "planting":
		add = decodeAndAdd(m.AddPlantingRecord)
	case "harvest":
		add = decodeAndAdd(m.AddHarvestRecord)
	case "processing":
		add = decodeAndAdd(m.AddProcessingRecord)
	case "packaging":
		add = decodeAndAdd(m.AddPackagingRecord)
	case "fertilizer":
		add = decodeAndAdd(m.AddFertilizerRecord)
	case "pesticide":
		add = decodeAndAdd(m.AddPesticideRecord)
	case "transport":
		add = decodeAndAdd(m.AddTransportRecord)
	case "quality":
		add = decodeAndAdd(m.AddQualityCheck)
	default:
		return errors.Newf("unknown record kind %q", kind).
			Component("traceability").
			Category(errors.CategoryValidation).
			Context("kinds", RecordKinds).
			Build()
	}
	return add(productID, data)
}

// IsRecordKind reports whether kind is accepted by AddRecordJSON.
func IsRecordKind(kind string) bool {
	return slices.Contains(RecordKinds, kind)
}

func decodeAndAdd[R any](add func(string, R) error) func(string, []byte) error {
	return func(id string, data []byte) error {
		var r R
		if err := json.Unmarshal(data, &r); err != nil {
			return errors.New(err).
				Component("traceability").
				Category(errors.CategoryValidation).
				Context("operation", "decode_record").
				Build()
		}
		return add(id, r)
	}
}
