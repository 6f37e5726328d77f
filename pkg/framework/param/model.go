package param

import "strconv"

// NoParameter is the slot map entry for an unused slot.
const NoParameter int32 = -1

// Model holds the ordered parameters of one plugin instance and the
// fixed-size map from format slot to parameter id.
//
// A Model is built once per reload and is never resized afterwards, so the
// audio thread may read it without locking as long as the owner swaps it
// only while processing is disabled.
type Model struct {
	params      []Parameter
	slotToParam []int32
}

// Describer reports whether a slot exists and, if so, its raw description.
type Describer func(rindex int) (Slot, bool)

// Scan builds a Model by probing every slot below maxSlots. Existing slots
// get compact, order-preserving ids.
func Scan(maxSlots int, describe Describer) *Model {
	if maxSlots < 0 {
		maxSlots = 0
	}

	m := &Model{
		params:      make([]Parameter, 0, maxSlots),
		slotToParam: make([]int32, maxSlots),
	}

	for rindex := 0; rindex < maxSlots; rindex++ {
		slot, ok := describe(rindex)
		if !ok {
			m.slotToParam[rindex] = NoParameter
			continue
		}

		id := int32(len(m.params))
		slot.RIndex = int32(rindex)
		m.params = append(m.params, FromSlot(id, slot))
		m.slotToParam[rindex] = id
	}

	return m
}

// Empty returns a Model with no parameters and no slots.
func Empty() *Model {
	return &Model{}
}

// Count returns the number of parameters
func (m *Model) Count() int {
	return len(m.params)
}

// MaxSlots returns the size of the slot map.
func (m *Model) MaxSlots() int {
	return len(m.slotToParam)
}

// Get retrieves a parameter by id. The pointer stays valid until the next
// reload replaces the Model.
func (m *Model) Get(id int32) (*Parameter, bool) {
	if id < 0 || int(id) >= len(m.params) {
		return nil, false
	}
	return &m.params[id], true
}

// ParameterForSlot returns the parameter id of a slot, or NoParameter.
func (m *Model) ParameterForSlot(rindex int) int32 {
	if rindex < 0 || rindex >= len(m.slotToParam) {
		return NoParameter
	}
	return m.slotToParam[rindex]
}

// All returns a copy of all parameters in order
func (m *Model) All() []Parameter {
	result := make([]Parameter, len(m.params))
	copy(result, m.params)
	return result
}

// SlotMap returns a copy of the slot to parameter map.
func (m *Model) SlotMap() []int32 {
	result := make([]int32, len(m.slotToParam))
	copy(result, m.slotToParam)
	return result
}

// FormatValue renders a raw value with 12 significant digits.
func FormatValue(value float64) string {
	return strconv.FormatFloat(value, 'g', 12, 64)
}
