package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slots(defs map[int]Slot) Describer {
	return func(rindex int) (Slot, bool) {
		s, ok := defs[rindex]
		return s, ok
	}
}

func TestScanCompactIDs(t *testing.T) {
	m := Scan(3, slots(map[int]Slot{
		0: {Name: "Gain", Min: -60, Max: 12, Def: 0, Step: 0.1},
		2: {Name: "Mix", Min: 0, Max: 100, Def: 100, Step: 1},
	}))

	require.Equal(t, 2, m.Count())
	assert.Equal(t, []int32{0, NoParameter, 1}, m.SlotMap())

	p0, ok := m.Get(0)
	require.True(t, ok)
	assert.Equal(t, int32(0), p0.RIndex)
	assert.Equal(t, "Gain", p0.Name)

	p1, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, int32(2), p1.RIndex)

	_, ok = m.Get(2)
	assert.False(t, ok)
	_, ok = m.Get(-1)
	assert.False(t, ok)

	assert.Equal(t, NoParameter, m.ParameterForSlot(1))
	assert.Equal(t, NoParameter, m.ParameterForSlot(99))
}

func TestScanIsDeterministic(t *testing.T) {
	defs := slots(map[int]Slot{
		1: {Name: "Mode", Min: 0, Max: 2, Def: 1, Step: 1, Enum: true, EnumCount: 3},
		4: {Name: "Level", Min: 0, Max: 1, Def: 0.5, Step: 0.01},
	})

	a := Scan(8, defs)
	b := Scan(8, defs)
	assert.Equal(t, a.All(), b.All())
	assert.Equal(t, a.SlotMap(), b.SlotMap())
}

func TestRangeInvariants(t *testing.T) {
	tests := []struct {
		name string
		slot Slot
		want Range
	}{
		{
			name: "regular",
			slot: Slot{Min: -10, Max: 10, Def: 2, Step: 0.5},
			want: Range{Min: -10, Max: 10, Def: 2, Step: 0.5, StepSmall: 0.05, StepLarge: 5},
		},
		{
			name: "degenerate range becomes unit range",
			slot: Slot{Min: 3, Max: 3, Def: 3, Step: 0},
			want: Range{Min: 0, Max: 1, Def: 1, Step: 0, StepSmall: 0, StepLarge: 0},
		},
		{
			name: "reversed range is swapped",
			slot: Slot{Min: 5, Max: -5, Def: 0, Step: 1},
			want: Range{Min: -5, Max: 5, Def: 0, Step: 1, StepSmall: 0.1, StepLarge: 10},
		},
		{
			name: "default clamped",
			slot: Slot{Min: 0, Max: 1, Def: 4, Step: 0.1},
			want: Range{Min: 0, Max: 1, Def: 1, Step: 0.1, StepSmall: 0.01, StepLarge: 1},
		},
		{
			name: "enumerated",
			slot: Slot{Min: 0, Max: 3, Def: 1, Step: 0.5, Enum: true, EnumCount: 4},
			want: Range{Min: 0, Max: 3, Def: 1, Step: 1, StepSmall: 1, StepLarge: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromSlot(0, tt.slot)
			assert.InDelta(t, tt.want.Min, p.Range.Min, 1e-12)
			assert.InDelta(t, tt.want.Max, p.Range.Max, 1e-12)
			assert.InDelta(t, tt.want.Def, p.Range.Def, 1e-12)
			assert.InDelta(t, tt.want.Step, p.Range.Step, 1e-12)
			assert.InDelta(t, tt.want.StepSmall, p.Range.StepSmall, 1e-12)
			assert.InDelta(t, tt.want.StepLarge, p.Range.StepLarge, 1e-12)
			assert.LessOrEqual(t, p.Range.Min, p.Range.Def)
			assert.LessOrEqual(t, p.Range.Def, p.Range.Max)
		})
	}
}

func TestEnumClassification(t *testing.T) {
	tests := []struct {
		name     string
		slot     Slot
		wantEnum bool
	}{
		{"count matches", Slot{Min: 0, Max: 2, Enum: true, EnumCount: 3}, true},
		{"count mismatch", Slot{Min: 0, Max: 2, Enum: true, EnumCount: 5}, false},
		{"min not zero", Slot{Min: 1, Max: 3, Enum: true, EnumCount: 3}, false},
		{"not enum", Slot{Min: 0, Max: 2, EnumCount: 3}, false},
		{"single label", Slot{Min: 0, Max: 0, Enum: true, EnumCount: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromSlot(0, tt.slot)
			assert.True(t, p.Hints.Has(IsEnabled|IsAutomatable))
			if tt.wantEnum {
				assert.True(t, p.Hints.Has(IsInteger|UsesScalePoints|UsesCustomText))
				assert.False(t, p.Hints.Has(CanBeCVControlled))
				assert.Equal(t, tt.slot.EnumCount, p.ScalePoints)
			} else {
				assert.False(t, p.Hints.Has(UsesScalePoints))
				assert.True(t, p.Hints.Has(CanBeCVControlled))
				assert.Zero(t, p.ScalePoints)
			}
		})
	}
}

func TestSingleLabelEnumKeepsLabelCount(t *testing.T) {
	p := FromSlot(0, Slot{Min: 0, Max: 0, Enum: true, EnumCount: 1})

	assert.Equal(t, 0.0, p.Range.Min)
	assert.Equal(t, 1.0, p.Range.Max, "degenerate range is widened")
	assert.Equal(t, 1, p.ScalePoints)
}

func TestFinalUnnormalizedValue(t *testing.T) {
	p := New(0, 0, "Mode").Range(0, 4).Enum(5).Build()
	assert.Equal(t, 2.0, p.FinalUnnormalizedValue(0.49))
	assert.Equal(t, 0.0, p.FinalUnnormalizedValue(-1))
	assert.Equal(t, 4.0, p.FinalUnnormalizedValue(2))

	b := New(1, 1, "Switch").Range(0, 1).Build()
	b.Hints |= IsBoolean
	assert.Equal(t, 0.0, b.FinalUnnormalizedValue(0.4))
	assert.Equal(t, 1.0, b.FinalUnnormalizedValue(0.5))

	c := New(2, 2, "Cutoff").Range(20, 220).Build()
	assert.InDelta(t, 70.0, c.FinalUnnormalizedValue(0.25), 1e-9)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "0.5", FormatValue(0.5))
	assert.Equal(t, "-12", FormatValue(-12))
	assert.Equal(t, "0.333333333333", FormatValue(1.0/3.0))
	assert.Equal(t, "1e+20", FormatValue(1e20))
}
