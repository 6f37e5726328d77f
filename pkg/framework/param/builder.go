package param

// Slot is the raw description of one format control slot, as reported by
// the plugin format before any host-side normalization.
type Slot struct {
	RIndex    int32
	Name      string
	Min       float64
	Max       float64
	Def       float64
	Step      float64
	Enum      bool
	EnumCount int
}

// Builder provides a fluent API for creating parameters
type Builder struct {
	param     Parameter
	enum      bool
	enumCount int
}

// New creates a new parameter builder
func New(id, rindex int32, name string) *Builder {
	return &Builder{
		param: Parameter{
			ID:                 id,
			RIndex:             rindex,
			Name:               name,
			Type:               TypeInput,
			Range:              Range{Min: 0, Max: 1, Def: 0},
			Hints:              IsEnabled | IsAutomatable,
			MappedControlIndex: ControlIndexNone,
		},
	}
}

// Range sets the min and max values
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Range.Min = min
	b.param.Range.Max = max
	return b
}

// Default sets the default value (in plain range, not normalized)
func (b *Builder) Default(value float64) *Builder {
	b.param.Range.Def = value
	return b
}

// Step sets the base step size
func (b *Builder) Step(step float64) *Builder {
	b.param.Range.Step = step
	return b
}

// Enum marks the slot as enumerated with count legal values.
func (b *Builder) Enum(count int) *Builder {
	b.enum = true
	b.enumCount = count
	return b
}

// Output marks the parameter as plugin-written.
func (b *Builder) Output() *Builder {
	b.param.Type = TypeOutput
	return b
}

// Build returns the configured parameter.
//
// A slot only counts as enumerated when its legal value count equals
// max-min+1 with min == 0. A degenerate min == max range becomes [0,1], a
// reversed range is swapped and the default is clamped into the result.
func (b *Builder) Build() Parameter {
	p := b.param
	r := &p.Range

	isEnum := b.enum && r.Min == 0 && r.Max >= 0 && r.Max+1 == float64(b.enumCount)

	// incomplete slider specifications are usually output-only sliders
	if r.Min == r.Max {
		r.Min = 0
		r.Max = 1
	}
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	r.Def = r.Fixed(r.Def)

	if isEnum {
		r.Step = 1
		r.StepSmall = 1
		r.StepLarge = 10
		p.Hints |= IsInteger | UsesScalePoints | UsesCustomText
		p.ScalePoints = b.enumCount
	} else {
		r.StepSmall = r.Step / 10
		r.StepLarge = r.Step * 10
		p.Hints |= CanBeCVControlled
	}

	return p
}

// FromSlot builds the parameter for a scanned slot.
func FromSlot(id int32, s Slot) Parameter {
	b := New(id, s.RIndex, s.Name).
		Range(s.Min, s.Max).
		Default(s.Def).
		Step(s.Step)
	if s.Enum {
		b.Enum(s.EnumCount)
	}
	return b.Build()
}
