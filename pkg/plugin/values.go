package plugin

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/justyntemme/plughost/pkg/adapter"
	"github.com/justyntemme/plughost/pkg/dsp/pan"
	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/midi"
)

// Host-level control ranges.
const (
	DryWetMin = 0.0
	DryWetMax = 1.0
	VolumeMin = 0.0
	VolumeMax = 1.27
)

// MaxMappedControlIndex is the highest controller a parameter may be bound to.
const MaxMappedControlIndex = 0x77

type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// ParameterCount returns the number of parameters.
func (i *Instance) ParameterCount() int {
	return i.params.Count()
}

// Parameter returns a copy of parameter id.
func (i *Instance) Parameter(id int32) (param.Parameter, error) {
	p, ok := i.params.Get(id)
	if !ok {
		return param.Parameter{}, fmt.Errorf("%w: parameter %d", ErrIndexOutOfRange, id)
	}
	return *p, nil
}

// Parameters returns every parameter in id order.
func (i *Instance) Parameters() []param.Parameter {
	return i.params.All()
}

// ParameterName returns the name of parameter id, or "".
func (i *Instance) ParameterName(id int32) string {
	p, ok := i.params.Get(id)
	if !ok {
		return ""
	}
	return p.Name
}

// Value reads parameter id from the format. Invalid ids read as 0.
func (i *Instance) Value(id int32) float64 {
	p, ok := i.params.Get(id)
	if !ok || i.effect == nil {
		return 0
	}
	return i.effect.SlotValue(int(p.RIndex))
}

// SetValue writes parameter id and, when notify is set, calls the listener
// before returning. Control context only.
func (i *Instance) SetValue(id int32, value float64, notify bool) {
	p, ok := i.params.Get(id)
	if !ok || i.effect == nil {
		return
	}

	value = p.Range.Fixed(value)
	i.effect.SetSlotValue(int(p.RIndex), value)

	if notify {
		i.notify(Notification{Kind: NotifyParameterValue, Index: id, Value: value})
	}
}

// SetValueRT writes parameter id from the audio thread. With sendLater the
// change is queued for the next DrainNotifications.
func (i *Instance) SetValueRT(id int32, value float64, sendLater bool) {
	p, ok := i.params.Get(id)
	if !ok {
		return
	}

	value = p.Range.Fixed(value)
	i.effect.SetSlotValue(int(p.RIndex), value)

	if sendLater {
		i.postRT.appendRT(Notification{Kind: NotifyParameterValue, Index: id, Value: value})
	}
}

// ValueText renders parameter id: the enumeration label when the value is
// a valid index, the raw value otherwise.
func (i *Instance) ValueText(id int32) string {
	p, ok := i.params.Get(id)
	if !ok || i.effect == nil {
		return ""
	}

	value := i.effect.SlotValue(int(p.RIndex))
	if p.Hints.Has(param.UsesScalePoints) {
		index := int(value)
		if float64(index) == value && index >= 0 && index < scalePoints(p) {
			if name, ok := i.effect.EnumName(int(p.RIndex), index); ok {
				return name
			}
		}
	}
	return param.FormatValue(value)
}

func scalePoints(p *param.Parameter) int {
	if !p.Hints.Has(param.UsesScalePoints) {
		return 0
	}
	return p.ScalePoints
}

// ScalePointCount returns the number of enumeration labels of parameter id.
func (i *Instance) ScalePointCount(id int32) int {
	p, ok := i.params.Get(id)
	if !ok {
		return 0
	}
	return scalePoints(p)
}

// ScalePointValue returns the value of scale point sp, which is its index.
func (i *Instance) ScalePointValue(id int32, sp int) (float64, error) {
	p, ok := i.params.Get(id)
	if !ok || sp < 0 || sp >= scalePoints(p) {
		return 0, fmt.Errorf("%w: scale point %d of parameter %d", ErrIndexOutOfRange, sp, id)
	}
	return float64(sp), nil
}

// ScalePointLabel returns the label of scale point sp.
func (i *Instance) ScalePointLabel(id int32, sp int) (string, error) {
	p, ok := i.params.Get(id)
	if !ok || sp < 0 || sp >= scalePoints(p) {
		return "", fmt.Errorf("%w: scale point %d of parameter %d", ErrIndexOutOfRange, sp, id)
	}
	name, ok := i.effect.EnumName(int(p.RIndex), sp)
	if !ok {
		return "", fmt.Errorf("%w: scale point %d of parameter %d", ErrIndexOutOfRange, sp, id)
	}
	return name, nil
}

// SetParameterMidiChannel sets the channel of the automation binding.
func (i *Instance) SetParameterMidiChannel(id int32, channel uint8) error {
	if channel >= midi.MaxChannels {
		return fmt.Errorf("%w: midi channel %d", ErrIndexOutOfRange, channel)
	}

	i.master.Lock()
	defer i.master.Unlock()

	p, ok := i.params.Get(id)
	if !ok {
		return fmt.Errorf("%w: parameter %d", ErrIndexOutOfRange, id)
	}
	p.MidiChannel = channel
	return nil
}

// SetParameterMappedControlIndex binds parameter id to a controller, or
// unbinds it with param.ControlIndexNone.
func (i *Instance) SetParameterMappedControlIndex(id int32, index int16) error {
	if index < param.ControlIndexNone || index > MaxMappedControlIndex {
		return fmt.Errorf("%w: control index %d", ErrIndexOutOfRange, index)
	}

	i.master.Lock()
	defer i.master.Unlock()

	p, ok := i.params.Get(id)
	if !ok {
		return fmt.Errorf("%w: parameter %d", ErrIndexOutOfRange, id)
	}
	p.MappedControlIndex = index
	return nil
}

// CtrlChannel returns the control channel, or -1 for none.
func (i *Instance) CtrlChannel() int8 {
	return int8(i.ctrlChannel.Load())
}

// SetCtrlChannel designates the control channel; -1 disables it.
func (i *Instance) SetCtrlChannel(channel int8) error {
	if channel < -1 || int(channel) >= midi.MaxChannels {
		return fmt.Errorf("%w: control channel %d", ErrIndexOutOfRange, channel)
	}
	i.ctrlChannel.Store(int32(channel))
	return nil
}

// DryWet returns the dry/wet amount.
func (i *Instance) DryWet() float64 { return i.dryWet.Load() }

// Volume returns the output volume.
func (i *Instance) Volume() float64 { return i.volume.Load() }

// BalanceLeft returns the left balance.
func (i *Instance) BalanceLeft() float64 { return i.balanceLeft.Load() }

// BalanceRight returns the right balance.
func (i *Instance) BalanceRight() float64 { return i.balanceRight.Load() }

// SetDryWet sets the dry/wet amount, clamped to [0,1].
func (i *Instance) SetDryWet(value float64, notify bool) {
	i.setHostControl(&i.dryWet, NotifyDryWet, clamp(value, DryWetMin, DryWetMax), notify)
}

// SetVolume sets the output volume, clamped to [0,1.27].
func (i *Instance) SetVolume(value float64, notify bool) {
	i.setHostControl(&i.volume, NotifyVolume, clamp(value, VolumeMin, VolumeMax), notify)
}

// SetBalanceLeft sets the left balance, clamped to [-1,1].
func (i *Instance) SetBalanceLeft(value float64, notify bool) {
	i.setHostControl(&i.balanceLeft, NotifyBalanceLeft, clamp(value, pan.BalanceMin, pan.BalanceMax), notify)
}

// SetBalanceRight sets the right balance, clamped to [-1,1].
func (i *Instance) SetBalanceRight(value float64, notify bool) {
	i.setHostControl(&i.balanceRight, NotifyBalanceRight, clamp(value, pan.BalanceMin, pan.BalanceMax), notify)
}

// SetDryWetRT is the audio thread variant of SetDryWet.
func (i *Instance) SetDryWetRT(value float64, sendLater bool) {
	i.setHostControlRT(&i.dryWet, NotifyDryWet, clamp(value, DryWetMin, DryWetMax), sendLater)
}

// SetVolumeRT is the audio thread variant of SetVolume.
func (i *Instance) SetVolumeRT(value float64, sendLater bool) {
	i.setHostControlRT(&i.volume, NotifyVolume, clamp(value, VolumeMin, VolumeMax), sendLater)
}

// SetBalanceLeftRT is the audio thread variant of SetBalanceLeft.
func (i *Instance) SetBalanceLeftRT(value float64, sendLater bool) {
	i.setHostControlRT(&i.balanceLeft, NotifyBalanceLeft, clamp(value, pan.BalanceMin, pan.BalanceMax), sendLater)
}

// SetBalanceRightRT is the audio thread variant of SetBalanceRight.
func (i *Instance) SetBalanceRightRT(value float64, sendLater bool) {
	i.setHostControlRT(&i.balanceRight, NotifyBalanceRight, clamp(value, pan.BalanceMin, pan.BalanceMax), sendLater)
}

func (i *Instance) setHostControl(target *atomicFloat, kind NotificationKind, value float64, notify bool) {
	target.Store(value)
	if notify {
		i.notify(Notification{Kind: kind, Index: -1, Value: value})
	}
}

func (i *Instance) setHostControlRT(target *atomicFloat, kind NotificationKind, value float64, sendLater bool) {
	target.Store(value)
	if sendLater {
		i.postRT.appendRT(Notification{Kind: kind, Index: -1, Value: value})
	}
}

func (i *Instance) programs() adapter.ProgramProvider {
	pp, _ := i.effect.(adapter.ProgramProvider)
	return pp
}

// ProgramCount returns the number of programs the format exposes.
func (i *Instance) ProgramCount() int {
	if pp := i.programs(); pp != nil {
		return pp.ProgramCount()
	}
	return 0
}

// ProgramName returns the name of program index, or "".
func (i *Instance) ProgramName(index int) string {
	pp := i.programs()
	if pp == nil || index < 0 || index >= pp.ProgramCount() {
		return ""
	}
	return pp.ProgramName(index)
}

// Program returns the current program, or -1.
func (i *Instance) Program() int32 {
	return i.program.Load()
}

// SetProgram switches programs. Index -1 only clears the current program.
func (i *Instance) SetProgram(index int32, notify bool) error {
	if index < -1 || int(index) >= i.ProgramCount() {
		return fmt.Errorf("%w: program %d", ErrIndexOutOfRange, index)
	}

	if index >= 0 {
		i.master.Lock()
		i.programs().SetProgram(int(index))
		i.master.Unlock()
	}
	i.program.Store(index)

	if notify {
		i.notify(Notification{Kind: NotifyProgram, Index: index})
	}
	return nil
}

// SetProgramRT switches programs from the audio thread.
func (i *Instance) SetProgramRT(index int32, sendLater bool) {
	pp := i.programs()
	if pp == nil || index < 0 || int(index) >= pp.ProgramCount() {
		return
	}

	pp.SetProgram(int(index))
	i.program.Store(index)

	if sendLater {
		i.postRT.appendRT(Notification{Kind: NotifyProgram, Index: index})
	}
}
