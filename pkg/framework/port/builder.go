package port

// ChannelNamer returns the format-supplied name of a channel, or "".
type ChannelNamer func(index int) string

// Builder provides a fluent API for building port tables
type Builder struct {
	policy NamePolicy
	table  *Table
}

// NewBuilder creates a new port table builder
func NewBuilder(policy NamePolicy) *Builder {
	return &Builder{
		policy: policy,
		table:  &Table{},
	}
}

// WithAudioInputs adds count audio inputs named by namer
func (b *Builder) WithAudioInputs(count int, namer ChannelNamer) *Builder {
	b.table.audioIn = b.audio(DirectionInput, "input", count, namer)
	return b
}

// WithAudioOutputs adds count audio outputs named by namer
func (b *Builder) WithAudioOutputs(count int, namer ChannelNamer) *Builder {
	b.table.audioOut = b.audio(DirectionOutput, "output", count, namer)
	return b
}

// WithEventInput adds the control event input port
func (b *Builder) WithEventInput() *Builder {
	b.table.eventIn = &Port{
		Direction: DirectionInput,
		Kind:      KindEvent,
		Name:      b.policy.Name("events-in"),
	}
	return b
}

// WithEventOutput adds the control event output port
func (b *Builder) WithEventOutput() *Builder {
	b.table.eventOut = &Port{
		Direction: DirectionOutput,
		Kind:      KindEvent,
		Name:      b.policy.Name("events-out"),
	}
	return b
}

// Build returns the table
func (b *Builder) Build() *Table {
	return b.table
}

func (b *Builder) audio(direction Direction, base string, count int, namer ChannelNamer) []Port {
	if count <= 0 {
		return nil
	}

	ports := make([]Port, count)
	for j := 0; j < count; j++ {
		var formatName string
		if namer != nil {
			formatName = namer(j)
		}
		ports[j] = Port{
			Index:     j,
			Direction: direction,
			Kind:      KindAudio,
			RIndex:    j,
			Name:      b.policy.AudioName(base, formatName, j, count),
		}
	}
	return ports
}
