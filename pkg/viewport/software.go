package viewport

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chazu/helix/pkg/camera"
	"github.com/chazu/helix/pkg/scene"
)

// Options configure a Software host.
type Options struct {
	Width, Height int

	// Delay is how long a capture waits before grabbing the frame, giving
	// the scene a chance to settle after the latest Show.
	Delay time.Duration

	// Timeout bounds a whole capture.
	Timeout time.Duration

	FOV        float64 // vertical field of view, degrees
	Background color.Color
}

// DefaultOptions returns the settings the editor uses.
func DefaultOptions() Options {
	return Options{
		Width:      1280,
		Height:     720,
		Delay:      100 * time.Millisecond,
		Timeout:    5 * time.Second,
		FOV:        50,
		Background: color.NRGBA{0xf0, 0xf4, 0xf8, 0xff},
	}
}

type frameRequest struct {
	scene  *scene.Scene
	camera camera.State
	reply  chan frameResult
}

type frameResult struct {
	url string
	err error
}

// Software is a Host that rasterizes frames on a dedicated render
// goroutine. Close stops the goroutine.
type Software struct {
	opts Options

	mu     sync.Mutex
	scene  *scene.Scene
	cam    camera.State
	preset string

	capturing atomic.Bool
	frames    atomic.Uint64

	requests  chan frameRequest
	quit      chan struct{}
	closeOnce sync.Once
}

// NewSoftware starts a Software host with the camera on the default preset.
// Zero-valued options fall back to DefaultOptions.
func NewSoftware(opts Options) *Software {
	def := DefaultOptions()
	if opts.FOV <= 0 {
		opts.FOV = def.FOV
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Background == nil {
		opts.Background = def.Background
	}

	p := camera.Resolve(camera.Default)
	s := &Software{
		opts:     opts,
		cam:      p.State,
		preset:   p.Name,
		requests: make(chan frameRequest),
		quit:     make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Software) loop() {
	for {
		select {
		case req := <-s.requests:
			url, err := s.encode(req.scene, req.camera)
			req.reply <- frameResult{url: url, err: err}
		case <-s.quit:
			return
		}
	}
}

func (s *Software) encode(sc *scene.Scene, st camera.State) (url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("viewport: render panic: %v", r)
		}
	}()

	img := render(sc, st, s.opts)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("viewport: encode frame: %w", err)
	}
	s.frames.Add(1)
	return DataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Show replaces the displayed scene.
func (s *Software) Show(sc *scene.Scene) {
	s.mu.Lock()
	s.scene = sc
	s.mu.Unlock()
}

// CurrentCameraState returns the camera placement.
func (s *Software) CurrentCameraState() camera.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cam
}

// CurrentPreset returns the name of the last applied preset.
func (s *Software) CurrentPreset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preset
}

// ApplyCameraPreset moves the camera to the named preset.
func (s *Software) ApplyCameraPreset(name string) camera.State {
	p := camera.Resolve(name)
	s.mu.Lock()
	s.cam = p.State
	s.preset = p.Name
	s.mu.Unlock()
	return p.State
}

// Frames returns how many frames have been rendered.
func (s *Software) Frames() uint64 {
	return s.frames.Load()
}

// CaptureFrame renders the current scene from the current camera. The
// returned Frame carries the scene and camera that were actually drawn.
func (s *Software) CaptureFrame(ctx context.Context) (Frame, error) {
	if !s.capturing.CompareAndSwap(false, true) {
		return Frame{}, ErrCaptureInProgress
	}
	defer s.capturing.Store(false)

	select {
	case <-s.quit:
		return Frame{}, fmt.Errorf("%w: host closed", ErrCaptureUnavailable)
	default:
	}

	s.mu.Lock()
	sc, cam := s.scene, s.cam
	s.mu.Unlock()
	if sc == nil {
		return Frame{}, fmt.Errorf("%w: nothing shown", ErrCaptureUnavailable)
	}
	if s.opts.Width <= 0 || s.opts.Height <= 0 {
		return Frame{}, fmt.Errorf("%w: %dx%d surface", ErrCaptureUnavailable, s.opts.Width, s.opts.Height)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if err := sleep(ctx, s.opts.Delay); err != nil {
		return Frame{}, fmt.Errorf("viewport: capture: %w", err)
	}

	// The scene may have changed while we waited.
	s.mu.Lock()
	if s.scene != nil {
		sc = s.scene
	}
	cam = s.cam
	s.mu.Unlock()

	reply := make(chan frameResult, 1)
	select {
	case s.requests <- frameRequest{scene: sc, camera: cam, reply: reply}:
	case <-s.quit:
		return Frame{}, fmt.Errorf("%w: host closed", ErrCaptureUnavailable)
	case <-ctx.Done():
		return Frame{}, fmt.Errorf("viewport: capture: %w", ctx.Err())
	}

	url, err := waitForFrame(ctx, reply)
	if err != nil {
		return Frame{}, err
	}
	logrus.Debugf("viewport: captured frame of scene %d (%d bytes)", sc.Generation, len(url))
	return Frame{DataURL: url, Scene: sc, Camera: cam}, nil
}

// Close stops the render goroutine. Later captures fail with
// ErrCaptureUnavailable.
func (s *Software) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
}

// waitForFrame blocks until the render goroutine replies or ctx ends.
func waitForFrame(ctx context.Context, reply <-chan frameResult) (string, error) {
	select {
	case res := <-reply:
		return res.url, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("viewport: capture: %w", ctx.Err())
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Host = (*Software)(nil)
