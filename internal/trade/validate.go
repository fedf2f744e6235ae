package trade

import "github.com/banshee-data/agreement.report/internal/monitoring"

// fieldValue pairs a raw field name with its submitted value for validation.
type fieldValue struct {
	field string
	value string
}

func (r *RawAnnotation) validatedFields() []fieldValue {
	return []fieldValue{
		{"label_type", r.LabelType},
		{"remaining_exposure", r.RemainingExposure},
		{"asset_reference_type", r.AssetReferenceType},
		{"direction", r.Direction},
		{"action_exposure_change", r.ActionExposureChange},
		{"state_exposure_change", r.StateExposureChange},
		{"action_position_status", r.ActionPositionStatus},
		{"state_position_status", r.StatePositionStatus},
		{"state_type", r.StateType},
	}
}

// Valid reports whether every submitted field value is inside its fixed
// enumeration. Unset fields always pass; free-form fields (specific_assets,
// optional task flags) are not enumerated.
func (r *RawAnnotation) Valid() bool {
	for _, fv := range r.validatedFields() {
		if fv.value == "" {
			continue
		}
		if !contains(validationRules[fv.field], fv.value) {
			return false
		}
	}
	return true
}

// ValidateAndNormalize is the validation boundary in front of the agreement
// engine. Annotations holding any out-of-enumeration value are dropped and
// logged, never raised: the task is still processed with whatever valid
// annotations remain, and an all-invalid list degenerates to the empty-trades
// case. Returns an empty slice for nil input.
func ValidateAndNormalize(raws []RawAnnotation) []Trade {
	trades := make([]Trade, 0, len(raws))
	for _, raw := range raws {
		if !raw.Valid() {
			monitoring.Logf("dropping invalid annotation: %s", describeViolation(raw))
			continue
		}
		trades = append(trades, Normalize(raw))
	}
	return trades
}

// describeViolation names the first out-of-enumeration field for logging.
func describeViolation(raw RawAnnotation) string {
	for _, fv := range raw.validatedFields() {
		if fv.value == "" {
			continue
		}
		if !contains(validationRules[fv.field], fv.value) {
			return fv.field + "=" + fv.value
		}
	}
	return "unknown violation"
}

func contains(values []string, v string) bool {
	for _, val := range values {
		if val == v {
			return true
		}
	}
	return false
}
