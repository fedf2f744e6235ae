// Package trade defines the canonical trade record extracted from labeling
// platform annotations, and the normalization, validation, and grouping
// steps that prepare raw annotations for agreement scoring.
package trade

import "sort"

// RawAnnotation is one annotation as exported by the labeling platform.
// Depending on label_type the platform emits variant-prefixed fields
// (action_* or state_*); Normalize merges them into the canonical shape.
// Empty strings and nil slices stand in for absent/null values.
type RawAnnotation struct {
	LabelType          string   `json:"label_type"`
	AssetReferenceType string   `json:"asset_reference_type"`
	SpecificAssets     []string `json:"specific_assets"`
	Direction          string   `json:"direction"`
	RemainingExposure  string   `json:"remaining_exposure"`
	StateType          string   `json:"state_type"`

	ActionPositionStatus string `json:"action_position_status"`
	StatePositionStatus  string `json:"state_position_status"`

	ActionExposureChange string `json:"action_exposure_change"`
	StateExposureChange  string `json:"state_exposure_change"`

	ActionOptionalTaskFlags []string `json:"action_optional_task_flags"`
	StateOptionalTaskFlags  []string `json:"state_optional_task_flags"`

	// StateTotalRetroFlag is state-only; when set it is folded into
	// OptionalTaskFlags during normalization.
	StateTotalRetroFlag string `json:"state_total_retro_flag"`
}

// Trade is the canonical, normalized trade record. No action_/state_
// prefixed variants remain; OptionalTaskFlags is always non-nil.
type Trade struct {
	LabelType          string
	AssetReferenceType string
	SpecificAssets     []string
	Direction          string
	PositionStatus     string
	ExposureChange     string
	RemainingExposure  string
	StateType          string
	OptionalTaskFlags  []string
}

// Label returns the value of one of the seven label-tracked fields, or ""
// when unset. Unknown field names return "".
func (t *Trade) Label(field string) string {
	switch field {
	case FieldLabelType:
		return t.LabelType
	case FieldAssetReferenceType:
		return t.AssetReferenceType
	case FieldDirection:
		return t.Direction
	case FieldPositionStatus:
		return t.PositionStatus
	case FieldExposureChange:
		return t.ExposureChange
	case FieldRemainingExposure:
		return t.RemainingExposure
	case FieldStateType:
		return t.StateType
	}
	return ""
}

// Normalize converts an already-validated raw annotation into a canonical
// trade. It is a pure function: the input is never mutated, so normalizing
// the same raw annotation twice is safe.
//
// The merge order matches the export contract: position status, exposure
// change, then optional task flags (state variant first, action variant
// overriding if both are somehow present), with state_total_retro_flag
// appended to the flags of state annotations.
func Normalize(raw RawAnnotation) Trade {
	t := Trade{
		LabelType:          raw.LabelType,
		AssetReferenceType: raw.AssetReferenceType,
		SpecificAssets:     cloneStrings(raw.SpecificAssets),
		Direction:          raw.Direction,
		RemainingExposure:  raw.RemainingExposure,
		StateType:          raw.StateType,
	}

	if raw.ActionPositionStatus != "" {
		t.PositionStatus = raw.ActionPositionStatus
	}
	if raw.StatePositionStatus != "" {
		t.PositionStatus = raw.StatePositionStatus
	}

	if raw.ActionExposureChange != "" {
		t.ExposureChange = raw.ActionExposureChange
	}
	if raw.StateExposureChange != "" {
		t.ExposureChange = raw.StateExposureChange
	}

	flags := []string{}
	if raw.StateOptionalTaskFlags != nil {
		flags = append(flags, raw.StateOptionalTaskFlags...)
	}
	if raw.StateTotalRetroFlag != "" {
		flags = append(flags, raw.StateTotalRetroFlag)
	}
	if raw.ActionOptionalTaskFlags != nil {
		flags = append([]string{}, raw.ActionOptionalTaskFlags...)
	}
	t.OptionalTaskFlags = flags

	return t
}

// NormalizeAll normalizes a list of raw annotations.
func NormalizeAll(raws []RawAnnotation) []Trade {
	trades := make([]Trade, 0, len(raws))
	for _, raw := range raws {
		trades = append(trades, Normalize(raw))
	}
	return trades
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func sortedCopy(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	sort.Strings(out)
	return out
}
