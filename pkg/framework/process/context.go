// Package process holds the per-block audio buffers of a plugin instance.
package process

// Context binds one block's audio buffers and owns scratch memory sized
// once per reload, so the block path never allocates.
type Context struct {
	Input      [][]float32
	Output     [][]float32
	Frames     int
	SampleRate float64

	workBuffer []float32
	tempBuffer []float32
	silence    []float32
}

// NewContext creates a context with scratch buffers for maxBlockSize frames.
func NewContext(maxBlockSize int, sampleRate float64) *Context {
	c := &Context{SampleRate: sampleRate}
	c.Resize(maxBlockSize)
	return c
}

// Resize reallocates the scratch buffers. Not real-time safe.
func (c *Context) Resize(maxBlockSize int) {
	if maxBlockSize < 0 {
		maxBlockSize = 0
	}
	c.workBuffer = make([]float32, maxBlockSize)
	c.tempBuffer = make([]float32, maxBlockSize)
	c.silence = make([]float32, maxBlockSize)
}

// MaxBlockSize returns the capacity of the scratch buffers.
func (c *Context) MaxBlockSize() int {
	return len(c.workBuffer)
}

// Bind attaches the buffers of the next block. frames is clamped to the
// scratch capacity and to the shortest bound channel.
func (c *Context) Bind(input, output [][]float32, frames int) {
	c.Input = input
	c.Output = output

	if frames > len(c.workBuffer) {
		frames = len(c.workBuffer)
	}
	for _, ch := range input {
		if len(ch) < frames {
			frames = len(ch)
		}
	}
	for _, ch := range output {
		if len(ch) < frames {
			frames = len(ch)
		}
	}
	if frames < 0 {
		frames = 0
	}
	c.Frames = frames
}

// NumSamples returns the number of frames in the bound block.
func (c *Context) NumSamples() int {
	return c.Frames
}

// NumInputChannels returns the number of input channels
func (c *Context) NumInputChannels() int {
	return len(c.Input)
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// InputChannel returns input channel ch, or silence when the channel is not
// bound.
func (c *Context) InputChannel(ch int) []float32 {
	if ch >= 0 && ch < len(c.Input) {
		return c.Input[ch][:c.Frames]
	}
	return c.silence[:c.Frames]
}

// WorkBuffer returns the work scratch buffer sized to the block.
func (c *Context) WorkBuffer() []float32 {
	return c.workBuffer[:c.Frames]
}

// TempBuffer returns the temp scratch buffer sized to the block.
func (c *Context) TempBuffer() []float32 {
	return c.tempBuffer[:c.Frames]
}

// PassThrough copies input to output (for bypass)
func (c *Context) PassThrough() {
	n := c.NumInputChannels()
	if c.NumOutputChannels() < n {
		n = c.NumOutputChannels()
	}
	for ch := 0; ch < n; ch++ {
		copy(c.Output[ch][:c.Frames], c.Input[ch][:c.Frames])
	}
	for ch := n; ch < c.NumOutputChannels(); ch++ {
		clear(c.Output[ch][:c.Frames])
	}
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	for ch := range c.Output {
		clear(c.Output[ch][:c.Frames])
	}
}

// ClearAll zeros every output buffer over its full length. It is used when
// a block failed before Bind could validate the frame count.
func ClearAll(output [][]float32) {
	for ch := range output {
		clear(output[ch])
	}
}
