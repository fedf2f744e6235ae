package trade

// Scoring weights for agreement calculations. These are exact contracts:
// downstream reports depend on them bit-for-bit.
const (
	// PrimaryKeyWeight is the credit a matched pair receives for agreeing on
	// the asset reference alone.
	PrimaryKeyWeight = 0.25

	// RemainingFieldsWeight scales the field-similarity share of a matched
	// pair's score.
	RemainingFieldsWeight = 0.75

	// PerLabelBaseScore is the floor credit per field for a matched pair,
	// mirroring PrimaryKeyWeight at single-field granularity.
	PerLabelBaseScore = 0.05

	// SimilarityFieldsCount is the number of fields in the similarity
	// calculation.
	SimilarityFieldsCount = 5
)

// Canonical field names.
const (
	FieldLabelType          = "label_type"
	FieldAssetReferenceType = "asset_reference_type"
	FieldDirection          = "direction"
	FieldPositionStatus     = "position_status"
	FieldExposureChange     = "exposure_change"
	FieldRemainingExposure  = "remaining_exposure"
	FieldStateType          = "state_type"
	FieldOptionalTaskFlags  = "optional_task_flags"
)

// AgreementFields are the five fields compared by the similarity function.
var AgreementFields = []string{
	FieldDirection,
	FieldPositionStatus,
	FieldExposureChange,
	FieldStateType,
	FieldOptionalTaskFlags,
}

// FieldColumns is the column order for per-field output CSVs.
var FieldColumns = []string{
	FieldStateType,
	FieldDirection,
	FieldExposureChange,
	FieldPositionStatus,
	FieldOptionalTaskFlags,
}

// LabelFields are the seven fields tracked for per-label statistics.
var LabelFields = []string{
	FieldLabelType,
	FieldAssetReferenceType,
	FieldDirection,
	FieldPositionStatus,
	FieldExposureChange,
	FieldRemainingExposure,
	FieldStateType,
}

// assetReferenceTypes is the fixed enumeration of asset reference values.
var assetReferenceTypes = []string{
	"Specific Asset(s)",
	"Majors",
	"DeFi",
	"AI",
	"AI Agents",
	"RWA",
	"Layer 1",
	"Layer 2",
	"Alts",
	"All Open Positions",
	"All Long Positions",
	"All Shorts",
	"Memes",
	"Other",
}

// fieldValuesOrder fixes the iteration order of FieldValues so that derived
// label keys (and therefore CSV schemas) are stable across runs.
var fieldValuesOrder = []string{
	FieldLabelType,
	FieldAssetReferenceType,
	FieldDirection,
	FieldPositionStatus,
	FieldExposureChange,
	FieldRemainingExposure,
	FieldStateType,
}

// FieldValues maps each label field to its complete set of valid canonical
// values. Used to derive the full per-label key vocabulary.
var FieldValues = map[string][]string{
	FieldLabelType:          {"action", "state"},
	FieldAssetReferenceType: assetReferenceTypes,
	FieldDirection:          {"Long", "Short", "Unclear"},
	FieldPositionStatus:     {"Clearly a new position", "Clearly an existing position"},
	FieldExposureChange:     {"Increase", "Decrease", "Unclear", "No Change"},
	FieldRemainingExposure:  {"Some", "None", "Unclear"},
	FieldStateType:          {"Explicit State", "Direct State", "Indirect State"},
}

// ambiguousLabels are values shared by multiple fields. Their per-label keys
// are qualified with the field name so tallies stay separate.
var ambiguousLabels = map[string]bool{
	"Unclear": true,
}

// LabelKey returns the per-label tally key for a label value, qualified with
// the field name when the value is ambiguous across fields.
func LabelKey(label, field string) string {
	if ambiguousLabels[label] {
		return label + " (" + field + ")"
	}
	return label
}

// AllLabelKeys is every possible per-label key, in stable order, with
// field-qualified keys for ambiguous labels. First occurrence wins for
// values shared across fields.
var AllLabelKeys = allLabelKeys()

func allLabelKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, field := range fieldValuesOrder {
		for _, label := range FieldValues[field] {
			key := LabelKey(label, field)
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	return keys
}

// validationRules lists the allowed values per raw annotation field. The
// variant-prefixed exposure fields have narrower enumerations than the merged
// canonical field: actions must state a direction of change, states cannot.
var validationRules = map[string][]string{
	"label_type":             {"state", "action"},
	"remaining_exposure":     {"Some", "None", "Unclear"},
	"asset_reference_type":   assetReferenceTypes,
	"direction":              {"Long", "Short", "Unclear"},
	"action_exposure_change": {"Increase", "Decrease", "Unclear"},
	"state_exposure_change":  {"No Change", "Unclear"},
	"action_position_status": {"Clearly a new position", "Clearly an existing position"},
	"state_position_status":  {"Clearly a new position", "Clearly an existing position"},
	"state_type":             {"Explicit State", "Direct State", "Indirect State"},
}
