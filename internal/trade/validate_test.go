package trade

import "testing"

func TestValid(t *testing.T) {
	cases := []struct {
		name string
		raw  RawAnnotation
		want bool
	}{
		{
			name: "valid action",
			raw: RawAnnotation{
				LabelType:            "action",
				AssetReferenceType:   "Majors",
				Direction:            "Long",
				ActionExposureChange: "Increase",
			},
			want: true,
		},
		{
			name: "empty annotation",
			raw:  RawAnnotation{},
			want: true,
		},
		{
			name: "bad direction",
			raw:  RawAnnotation{Direction: "Sideways"},
			want: false,
		},
		{
			name: "state exposure cannot increase",
			raw:  RawAnnotation{StateExposureChange: "Increase"},
			want: false,
		},
		{
			name: "action exposure can increase",
			raw:  RawAnnotation{ActionExposureChange: "Increase"},
			want: true,
		},
		{
			name: "bad asset reference",
			raw:  RawAnnotation{AssetReferenceType: "Stocks"},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.raw.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidateAndNormalizeDropsInvalid(t *testing.T) {
	raws := []RawAnnotation{
		{Direction: "Long"},
		{Direction: "Sideways"},
		{Direction: "Short"},
	}

	trades := ValidateAndNormalize(raws)
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}
	if trades[0].Direction != "Long" || trades[1].Direction != "Short" {
		t.Errorf("surviving trades = %v", trades)
	}
}

func TestValidateAndNormalizeNilInput(t *testing.T) {
	trades := ValidateAndNormalize(nil)
	if trades == nil {
		t.Fatal("want non-nil empty slice for nil input")
	}
	if len(trades) != 0 {
		t.Errorf("got %d trades, want 0", len(trades))
	}
}
