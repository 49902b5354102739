package engine

import (
	"fmt"
	"math"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"

	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/ellipse"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms tower script source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: no-louvers -> no_louvers
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// patch is a list of edits to apply to a Config in order.
type patch []func(*building.Config)

func (p patch) apply(c *building.Config) {
	for _, step := range p {
		step(c)
	}
}

// sexpPatch wraps the edits produced by `facade` and `louvers` so they can
// be passed to `tower`.
type sexpPatch struct {
	form  string
	steps patch
}

func (p *sexpPatch) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s ...)", p.form)
}
func (p *sexpPatch) Type() *zygo.RegisteredType { return nil }

// sexpTower is returned by `tower`.
type sexpTower struct {
	cfg building.Config
}

func (t *sexpTower) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(tower %gx%g h=%g floors=%d twist=%g)",
		t.cfg.MajorAxis, t.cfg.MinorAxis, t.cfg.Height, t.cfg.Floors, t.cfg.RotationPerFloor)
}
func (t *sexpTower) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// setter turns one keyword value into a Config edit.
type setter func(v zygo.Sexp) (func(*building.Config), error)

// applyKeywords parses args against fields. Keywords are applied in name
// order so a script always produces the same config.
func applyKeywords(form string, fields map[string]setter, args []zygo.Sexp) (patch, error) {
	pa := parseArgs(args)
	if len(pa.positional) > 0 {
		return nil, fmt.Errorf("%s: unexpected argument %s, expected :keyword value pairs",
			form, pa.positional[0].SexpString(nil))
	}

	names := lo.Keys(pa.kw)
	slices.Sort(names)

	var p patch
	for _, kw := range names {
		set, ok := fields[kw]
		if !ok {
			return nil, fmt.Errorf("%s: unknown keyword :%s", form, kw)
		}
		step, err := set(pa.kw[kw])
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", form, kw, err)
		}
		p = append(p, step)
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean from a Sexp.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

func number(set func(*building.Config, float64)) setter {
	return func(v zygo.Sexp) (func(*building.Config), error) {
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		return func(c *building.Config) { set(c, f) }, nil
	}
}

func whole(set func(*building.Config, int)) setter {
	return func(v zygo.Sexp) (func(*building.Config), error) {
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("expected a whole number, got %g", f)
		}
		n := int(f)
		return func(c *building.Config) { set(c, n) }, nil
	}
}

func colorValue(set func(*building.Config, string)) setter {
	return func(v zygo.Sexp) (func(*building.Config), error) {
		s, err := toString(v)
		if err != nil {
			return nil, err
		}
		if !building.IsValidColor(s) {
			return nil, fmt.Errorf("invalid color %q, expected #RRGGBB", s)
		}
		return func(c *building.Config) { set(c, s) }, nil
	}
}

func flag(set func(*building.Config, bool)) setter {
	return func(v zygo.Sexp) (func(*building.Config), error) {
		b, err := toBool(v)
		if err != nil {
			return nil, err
		}
		return func(c *building.Config) { set(c, b) }, nil
	}
}

// nested accepts the output of the form called form.
func nested(form string) setter {
	return func(v zygo.Sexp) (func(*building.Config), error) {
		p, ok := v.(*sexpPatch)
		if !ok || p.form != form {
			return nil, fmt.Errorf("expected (%s ...), got %s", form, v.SexpString(nil))
		}
		return p.steps.apply, nil
	}
}

var facadeFields = map[string]setter{
	"color":   colorValue(func(c *building.Config, s string) { c.FacadeColor = s }),
	"glass":   colorValue(func(c *building.Config, s string) { c.GlassColor = s }),
	"opacity": number(func(c *building.Config, f float64) { c.GlassOpacity = f }),
}

var louverFields = map[string]setter{
	"spacing": whole(func(c *building.Config, n int) { c.LouverSpacing = n }),
	"depth":   number(func(c *building.Config, f float64) { c.LouverDepth = f }),
	"color":   colorValue(func(c *building.Config, s string) { c.LouverColor = s }),
	"enabled": flag(func(c *building.Config, b bool) { c.EnableLouvers = b }),
}

var towerFields = map[string]setter{
	"major-axis":         number(func(c *building.Config, f float64) { c.MajorAxis = f }),
	"minor-axis":         number(func(c *building.Config, f float64) { c.MinorAxis = f }),
	"height":             number(func(c *building.Config, f float64) { c.Height = f }),
	"floors":             whole(func(c *building.Config, n int) { c.Floors = n }),
	"rotation-per-floor": number(func(c *building.Config, f float64) { c.RotationPerFloor = f }),
	"facade":             nested("facade"),

	// Legacy names.
	"width": number(func(c *building.Config, f float64) { c.MajorAxis = f }),
	"depth": number(func(c *building.Config, f float64) { c.MinorAxis = f }),
	"color": colorValue(func(c *building.Config, s string) { c.FacadeColor = s }),
}

// louversSetter accepts either (louvers ...) or a boolean.
func louversSetter(v zygo.Sexp) (func(*building.Config), error) {
	if _, ok := v.(*zygo.SexpBool); ok {
		return flag(func(c *building.Config, b bool) { c.EnableLouvers = b })(v)
	}
	return nested("louvers")(v)
}

// ---------------------------------------------------------------------------
// Result collection
// ---------------------------------------------------------------------------

// builder collects the config described by a script.
type builder struct {
	cfg      building.Config
	towers   int
	warnings []EvalWarning
}

func newBuilder() *builder {
	return &builder{cfg: building.Default()}
}

// result validates the collected config. Values that would break the
// geometry are errors; values that are merely outside their slider range
// are warnings.
func (b *builder) result() EvalResult {
	res := EvalResult{Warnings: b.warnings}
	if b.towers > 1 {
		res.Warnings = append(res.Warnings, EvalWarning{
			Message: fmt.Sprintf("tower defined %d times; the last definition wins", b.towers),
		})
	}
	for _, err := range building.Validate(b.cfg) {
		if building.IsPrecondition(err) {
			res.Errors = append(res.Errors, EvalError{Message: err.Error()})
		} else {
			res.Warnings = append(res.Warnings, EvalWarning{Message: err.Error()})
		}
	}
	if len(res.Errors) > 0 {
		return res
	}
	cfg := b.cfg
	res.Config = &cfg
	return res
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the tower DSL builtins into a zygomys environment.
// The builtins record into b during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (facade :color "#C0C0C0" :glass "#87CEEB" :opacity 0.7)
	// -----------------------------------------------------------------------
	env.AddFunction("facade", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		p, err := applyKeywords("facade", facadeFields, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPatch{form: "facade", steps: p}, nil
	})

	// -----------------------------------------------------------------------
	// (louvers :spacing 2 :depth 0.5 :color "#A0A0A0")
	//
	// Using the form enables louvers unless it says :enabled false.
	// -----------------------------------------------------------------------
	env.AddFunction("louvers", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		p, err := applyKeywords("louvers", louverFields, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		on := func(c *building.Config) { c.EnableLouvers = true }
		return &sexpPatch{form: "louvers", steps: append(patch{on}, p...)}, nil
	})

	// -----------------------------------------------------------------------
	// (no-louvers)
	// -----------------------------------------------------------------------
	env.AddFunction("no_louvers", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) > 0 {
			return zygo.SexpNull, fmt.Errorf("no-louvers takes no arguments")
		}
		off := func(c *building.Config) { c.EnableLouvers = false }
		return &sexpPatch{form: "louvers", steps: patch{off}}, nil
	})

	// -----------------------------------------------------------------------
	// (tower :major-axis 20 :minor-axis 15 :height 120 :floors 30
	//        :rotation-per-floor 2 :facade (facade ...) :louvers (louvers ...))
	//
	// Unspecified fields keep their defaults.
	// -----------------------------------------------------------------------
	fields := make(map[string]setter, len(towerFields)+1)
	for k, v := range towerFields {
		fields[k] = v
	}
	fields["louvers"] = louversSetter

	env.AddFunction("tower", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		p, err := applyKeywords("tower", fields, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		cfg := building.Default()
		p.apply(&cfg)

		b.cfg = cfg
		b.towers++
		return &sexpTower{cfg: cfg}, nil
	})

	// -----------------------------------------------------------------------
	// (ellipse-area 20 15) -> plan area of a floor
	// -----------------------------------------------------------------------
	env.AddFunction("ellipse_area", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("ellipse-area requires major and minor axes, got %d arguments", len(args))
		}
		major, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ellipse-area: major: %w", err)
		}
		minor, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ellipse-area: minor: %w", err)
		}
		return &zygo.SexpFloat{Val: ellipse.Area(major, minor)}, nil
	})
}
