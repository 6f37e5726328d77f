package plugin

// Options is the per-instance option bitset chosen at construction.
type Options uint32

const (
	OptionFixedBuffers Options = 1 << iota
	OptionForceStereo
	OptionMapProgramChanges
	OptionUseChunks
	OptionSendControlChanges
	OptionSendChannelPressure
	OptionSendNoteAftertouch
	OptionSendPitchbend
	OptionSendAllSoundOff
	OptionSendProgramChanges
	OptionSkipSendingNotes
)

// DefaultOptions are applied when an initializer requests none.
const DefaultOptions = OptionUseChunks | OptionSendControlChanges | OptionSendChannelPressure |
	OptionSendNoteAftertouch | OptionSendPitchbend | OptionSendAllSoundOff | OptionSendProgramChanges

// Has reports whether every bit of o2 is set.
func (o Options) Has(o2 Options) bool {
	return o&o2 == o2
}

var optionNames = []struct {
	opt  Options
	name string
}{
	{OptionFixedBuffers, "fixed-buffers"},
	{OptionForceStereo, "force-stereo"},
	{OptionMapProgramChanges, "map-program-changes"},
	{OptionUseChunks, "use-chunks"},
	{OptionSendControlChanges, "send-control-changes"},
	{OptionSendChannelPressure, "send-channel-pressure"},
	{OptionSendNoteAftertouch, "send-note-aftertouch"},
	{OptionSendPitchbend, "send-pitchbend"},
	{OptionSendAllSoundOff, "send-all-sound-off"},
	{OptionSendProgramChanges, "send-program-changes"},
	{OptionSkipSendingNotes, "skip-sending-notes"},
}

// Names lists the set options by configuration name.
func (o Options) Names() []string {
	var names []string
	for _, n := range optionNames {
		if o&n.opt != 0 {
			names = append(names, n.name)
		}
	}
	return names
}

// ParseOptions converts configuration names to an option set.
func ParseOptions(names []string) (Options, bool) {
	var o Options
	for _, name := range names {
		found := false
		for _, n := range optionNames {
			if n.name == name {
				o |= n.opt
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return o, true
}

// Hints are host-side capabilities derived from the channel layout.
type Hints uint32

const (
	HintCanDryWet Hints = 1 << iota
	HintCanVolume
	HintCanBalance
)

// Has reports whether every bit of h2 is set.
func (h Hints) Has(h2 Hints) bool {
	return h&h2 == h2
}

func hintsFor(ins, outs int) Hints {
	var h Hints
	if outs > 0 && (ins == outs || ins == 1) {
		h |= HintCanDryWet
	}
	if outs > 0 {
		h |= HintCanVolume
	}
	if outs >= 2 && outs%2 == 0 {
		h |= HintCanBalance
	}
	return h
}

// ProcessMode is the engine's client layout.
type ProcessMode int

const (
	ProcessModeSingleClient ProcessMode = iota
	ProcessModeMultipleClients
	ProcessModeContinuousRack
)

func (m ProcessMode) String() string {
	switch m {
	case ProcessModeSingleClient:
		return "single-client"
	case ProcessModeMultipleClients:
		return "multiple-clients"
	case ProcessModeContinuousRack:
		return "rack"
	default:
		return "unknown"
	}
}

// Category is a coarse plugin category.
type Category int

const (
	CategoryNone Category = iota
	CategorySynth
	CategoryDelay
	CategoryEQ
	CategoryFilter
	CategoryDistortion
	CategoryDynamics
	CategoryModulator
	CategoryUtility
	CategoryOther
)

func (c Category) String() string {
	switch c {
	case CategorySynth:
		return "synth"
	case CategoryDelay:
		return "delay"
	case CategoryEQ:
		return "eq"
	case CategoryFilter:
		return "filter"
	case CategoryDistortion:
		return "distortion"
	case CategoryDynamics:
		return "dynamics"
	case CategoryModulator:
		return "modulator"
	case CategoryUtility:
		return "utility"
	case CategoryOther:
		return "other"
	default:
		return "none"
	}
}

var categoryTags = map[string]Category{
	"synth":      CategorySynth,
	"synthesis":  CategorySynth,
	"instrument": CategorySynth,
	"generator":  CategorySynth,
	"delay":      CategoryDelay,
	"echo":       CategoryDelay,
	"reverb":     CategoryDelay,
	"eq":         CategoryEQ,
	"equalizer":  CategoryEQ,
	"filter":     CategoryFilter,
	"distortion": CategoryDistortion,
	"saturation": CategoryDistortion,
	"waveshaper": CategoryDistortion,
	"dynamics":   CategoryDynamics,
	"compressor": CategoryDynamics,
	"limiter":    CategoryDynamics,
	"gate":       CategoryDynamics,
	"modulation": CategoryModulator,
	"chorus":     CategoryModulator,
	"flanger":    CategoryModulator,
	"phaser":     CategoryModulator,
	"tremolo":    CategoryModulator,
	"utility":    CategoryUtility,
	"analysis":   CategoryUtility,
	"meter":      CategoryUtility,
	"routing":    CategoryUtility,
}

// CategoryFromTags returns the category of the first recognized tag.
func CategoryFromTags(tags []string) Category {
	for _, t := range tags {
		if c, ok := categoryTags[t]; ok {
			return c
		}
	}
	if len(tags) > 0 {
		return CategoryOther
	}
	return CategoryNone
}
