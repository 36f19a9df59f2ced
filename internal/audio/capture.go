package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// ErrDeviceUnavailable reports that the requested device could not be
// opened: it is missing, busy, or microphone permission was denied.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// ErrStreamInterrupted reports that the OS stopped an open capture stream
// mid-run, for example because the device was unplugged.
var ErrStreamInterrupted = errors.New("audio stream interrupted")

// CaptureConfig holds the PCM parameters for a capture stream.
type CaptureConfig struct {
	SampleRate int
	Channels   int
	FrameBytes int // bytes per emitted frame (s16le)
	QueueSize  int // max frames buffered before drop-oldest
}

// Capture owns exclusive access to one input device for its lifetime and
// produces a lazy, non-restartable stream of frames until closed.
type Capture struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	queue  *FrameQueue

	deviceName string
	frameBytes int

	mu      sync.Mutex
	pending []byte
	seq     uint64
	closed  bool

	interrupted chan error
}

// Open acquires a capture device and starts reading frames. deviceIndex -1
// selects the platform default input; any other value must match an index
// returned by Devices.
func Open(deviceIndex int, cfg CaptureConfig) (*Capture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init context: %v", ErrDeviceUnavailable, err)
	}

	c := &Capture{
		ctx:         ctx,
		queue:       NewFrameQueue(cfg.QueueSize),
		frameBytes:  cfg.FrameBytes,
		pending:     make([]byte, 0, cfg.FrameBytes*2),
		interrupted: make(chan error, 1),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)

	if deviceIndex >= 0 {
		infos, err := ctx.Devices(malgo.Capture)
		if err != nil {
			c.teardown()
			return nil, fmt.Errorf("%w: enumerate devices: %v", ErrDeviceUnavailable, err)
		}
		if deviceIndex >= len(infos) {
			c.teardown()
			return nil, fmt.Errorf("%w: no capture device with index %d (%d available)",
				ErrDeviceUnavailable, deviceIndex, len(infos))
		}
		deviceConfig.Capture.DeviceID = infos[deviceIndex].ID.Pointer()
		c.deviceName = infos[deviceIndex].Name()
	} else {
		c.deviceName = "default input"
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			c.onData(input)
		},
		Stop: func() {
			c.onStop()
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		c.teardown()
		return nil, fmt.Errorf("%w: open device: %v", ErrDeviceUnavailable, err)
	}
	c.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		c.teardown()
		return nil, fmt.Errorf("%w: start device: %v", ErrDeviceUnavailable, err)
	}

	return c, nil
}

// DeviceName returns the name of the opened device.
func (c *Capture) DeviceName() string {
	return c.deviceName
}

// Frames returns the capture frame stream. The channel is closed when the
// capture is closed.
func (c *Capture) Frames() <-chan Frame {
	return c.queue.Frames()
}

// Dropped reports how many frames were evicted due to backpressure.
func (c *Capture) Dropped() uint64 {
	return c.queue.Dropped()
}

// Interrupted delivers ErrStreamInterrupted if the OS stops the stream
// while the capture is still open.
func (c *Capture) Interrupted() <-chan error {
	return c.interrupted
}

// onData runs on the miniaudio callback thread: accumulate PCM and emit
// full frames in order.
func (c *Capture) onData(input []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.pending = append(c.pending, input...)
	for len(c.pending) >= c.frameBytes {
		data := make([]byte, c.frameBytes)
		copy(data, c.pending[:c.frameBytes])
		c.pending = c.pending[:copy(c.pending, c.pending[c.frameBytes:])]

		c.seq++
		c.queue.Push(Frame{Seq: c.seq, Data: data})
	}
}

// onStop fires when the device stops. A stop without Close is an
// interruption.
func (c *Capture) onStop() {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	select {
	case c.interrupted <- ErrStreamInterrupted:
	default:
	}
}

// Close releases the device and closes the frame stream. Safe to call more
// than once.
func (c *Capture) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
	}
	c.teardown()
	c.queue.Close()
	return nil
}

func (c *Capture) teardown() {
	if c.ctx != nil {
		_ = c.ctx.Uninit()
		c.ctx.Free()
		c.ctx = nil
	}
}
