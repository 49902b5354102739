package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/helix/pkg/building"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(facade :color "#C0C0C0")`,
			expect: `(facade "__kw_color" "#C0C0C0")`,
		},
		{
			name:   "multiple keywords",
			input:  `(tower :height 120 :floors 30)`,
			expect: `(tower "__kw_height" 120 "__kw_floors" 30)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(ellipse-area :major-axis ref)`,
			expect: `(ellipse_area "__kw_major-axis" ref)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `:rotation-per-floor -2`,
			expect: `"__kw_rotation-per-floor" -2`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func evalOK(t *testing.T, source string) EvalResult {
	t.Helper()
	res, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("eval errors: %v", res.Errors)
	}
	if res.Config == nil {
		t.Fatal("expected a config")
	}
	return res
}

// ---------------------------------------------------------------------------
// Tower forms
// ---------------------------------------------------------------------------

func TestFullTower(t *testing.T) {
	source := `
;; the showroom tower
(tower :major-axis 24 :minor-axis 16 :height 150 :floors 40
       :rotation-per-floor 1.5
       :facade (facade :color "#112233" :glass "#445566" :opacity 0.5)
       :louvers (louvers :spacing 4 :depth 1.2 :color "#778899"))
`
	res := evalOK(t, source)
	want := building.Config{
		MajorAxis:        24,
		MinorAxis:        16,
		Height:           150,
		Floors:           40,
		RotationPerFloor: 1.5,
		FacadeColor:      "#112233",
		GlassColor:       "#445566",
		GlassOpacity:     0.5,
		EnableLouvers:    true,
		LouverSpacing:    4,
		LouverDepth:      1.2,
		LouverColor:      "#778899",
	}
	if *res.Config != want {
		t.Errorf("config = %+v\nwant %+v", *res.Config, want)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestUnspecifiedFieldsKeepDefaults(t *testing.T) {
	res := evalOK(t, `(tower :floors 50)`)
	want := building.Default()
	want.Floors = 50
	if *res.Config != want {
		t.Errorf("config = %+v, want %+v", *res.Config, want)
	}
}

func TestVariablesAndArithmetic(t *testing.T) {
	source := `
(def floors 36)
(def storey 4)
(tower :floors floors :height (* floors storey) :rotation-per-floor (/ 90.0 floors))
`
	res := evalOK(t, source)
	if res.Config.Height != 144 {
		t.Errorf("height = %f, want 144", res.Config.Height)
	}
	if res.Config.RotationPerFloor != 2.5 {
		t.Errorf("rotation = %f, want 2.5", res.Config.RotationPerFloor)
	}
}

func TestLouverToggles(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   bool
	}{
		{"boolean off", `(tower :louvers false)`, false},
		{"boolean on", `(tower :louvers true)`, true},
		{"form enables", `(tower :louvers (louvers :spacing 3))`, true},
		{"form disabled", `(tower :louvers (louvers :enabled false))`, false},
		{"no-louvers", `(tower :louvers (no-louvers))`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := evalOK(t, tt.source)
			if res.Config.EnableLouvers != tt.want {
				t.Errorf("EnableLouvers = %v, want %v", res.Config.EnableLouvers, tt.want)
			}
		})
	}
}

func TestLegacyKeywords(t *testing.T) {
	res := evalOK(t, `(tower :width 30 :depth 20 :color "#ABCDEF")`)
	if res.Config.MajorAxis != 30 || res.Config.MinorAxis != 20 || res.Config.FacadeColor != "#ABCDEF" {
		t.Errorf("legacy keywords not applied: %+v", *res.Config)
	}
}

func TestNoTowerFormUsesDefaults(t *testing.T) {
	res := evalOK(t, `(+ 1 2)`)
	if *res.Config != building.Default() {
		t.Errorf("config = %+v, want defaults", *res.Config)
	}
}

func TestLastTowerWins(t *testing.T) {
	res := evalOK(t, "(tower :floors 20)\n(tower :floors 60)")
	if res.Config.Floors != 60 {
		t.Errorf("floors = %d, want 60", res.Config.Floors)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "2 times") {
		t.Errorf("warnings = %v, want one redefinition warning", res.Warnings)
	}
}

func TestOutOfRangeIsWarning(t *testing.T) {
	res := evalOK(t, `(tower :height 400)`)
	if res.Config.Height != 400 {
		t.Errorf("height = %f, want 400 (clamping is the editor's job)", res.Config.Height)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "height") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"unknown keyword", `(tower :roof-type "flat")`, "unknown keyword :roof-type"},
		{"bad color", `(tower :facade (facade :color "red"))`, "invalid color"},
		{"fractional floors", `(tower :floors 12.5)`, "whole number"},
		{"wrong nested form", `(tower :facade (louvers :spacing 2))`, "expected (facade ...)"},
		{"positional argument", `(tower 20 15)`, "unexpected argument"},
		{"string for number", `(tower :height "tall")`, "expected number"},
		{"zero floors", `(tower :floors 0)`, "floors must be at least 1"},
		{"zero height", `(tower :height 0)`, "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if res.Config != nil {
				t.Errorf("expected nil config, got %+v", *res.Config)
			}
			if len(res.Errors) == 0 {
				t.Fatal("expected eval errors")
			}
			if !strings.Contains(res.Errors[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", res.Errors[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestEllipseArea(t *testing.T) {
	res := evalOK(t, `(tower :height (ellipse-area 20 15))`)
	if math.Abs(res.Config.Height-235.619) > 1e-3 {
		t.Errorf("height = %f, want ~235.619", res.Config.Height)
	}
}
