// Package editor is the application service behind both the desktop shell
// and the HTTP server. It owns the current building config, rebuilds the
// scene on every edit, and routes captures to the gallery and external
// processing.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chazu/helix/pkg/apiconfig"
	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/camera"
	"github.com/chazu/helix/pkg/engine"
	"github.com/chazu/helix/pkg/export"
	"github.com/chazu/helix/pkg/gallery"
	"github.com/chazu/helix/pkg/kernel"
	"github.com/chazu/helix/pkg/kernel/facet"
	"github.com/chazu/helix/pkg/scene"
	"github.com/chazu/helix/pkg/viewport"
)

// ErrNoScene is returned when an operation needs a built scene and none
// exists yet.
var ErrNoScene = errors.New("editor: no scene built")

// Options wire an Editor to its collaborators. Nil fields get in-memory
// defaults.
type Options struct {
	Kernel    kernel.Kernel
	Host      viewport.Host
	Gallery   gallery.Store
	APIs      *apiconfig.Registry
	Processor apiconfig.Processor

	// Initial is the config the editor opens with. The zero value means
	// building.Default().
	Initial building.Config

	Now func() time.Time
}

// Editor is safe for concurrent use. Edits are serialized; the scene a
// caller receives is never modified afterwards.
type Editor struct {
	mu     sync.Mutex // serializes edits
	config building.Config

	assembler *scene.Assembler
	host      viewport.Host
	gallery   gallery.Store
	apis      *apiconfig.Registry
	processor apiconfig.Processor
	engine    *engine.Engine
	now       func() time.Time
}

// New builds the initial scene and returns the Editor.
func New(opts Options) (*Editor, error) {
	if opts.Kernel == nil {
		opts.Kernel = facet.New()
	}
	if opts.Host == nil {
		opts.Host = viewport.NewSoftware(viewport.DefaultOptions())
	}
	if opts.Gallery == nil {
		opts.Gallery = gallery.NewMemoryStore()
	}
	if opts.APIs == nil {
		opts.APIs = apiconfig.NewRegistry()
	}
	if opts.Processor == nil {
		opts.Processor = apiconfig.MockProcessor{Delay: apiconfig.DefaultProcessDelay}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Initial == (building.Config{}) {
		opts.Initial = building.Default()
	}

	e := &Editor{
		assembler: scene.NewAssembler(opts.Kernel),
		host:      opts.Host,
		gallery:   opts.Gallery,
		apis:      opts.APIs,
		processor: opts.Processor,
		engine:    engine.NewEngine(),
		now:       opts.Now,
	}
	e.assembler.Observe(e.host.Show)

	if _, _, err := e.SetConfig(opts.Initial); err != nil {
		return nil, err
	}
	return e, nil
}

// Observe registers fn to run after every rebuild.
func (e *Editor) Observe(fn scene.Observer) {
	e.assembler.Observe(fn)
}

// KernelName returns the name of the geometry backend.
func (e *Editor) KernelName() string {
	return e.assembler.Kernel().Name()
}

// Config returns the current config.
func (e *Editor) Config() building.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// SetConfig clamps c to the slider ranges, rebuilds the scene from it and
// makes it current. On failure the previous config and scene stay.
func (e *Editor) SetConfig(c building.Config) (building.Config, *scene.Scene, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply(building.Clamp(c))
}

// Update edits one field, addressed by its JSON name. Legacy names
// (width, depth, color) write through to the canonical fields.
func (e *Editor) Update(field string, value any) (building.Config, *scene.Scene, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := building.Set(e.config, field, value)
	if err != nil {
		return e.config, e.assembler.Current(), err
	}
	return e.apply(building.Clamp(next))
}

// apply rebuilds from c. Callers hold e.mu.
func (e *Editor) apply(c building.Config) (building.Config, *scene.Scene, error) {
	s, err := e.assembler.Rebuild(c)
	if err != nil {
		logrus.Errorf("editor: rebuild failed: %v", err)
		return e.config, e.assembler.Current(), err
	}
	e.config = c
	return c, s, nil
}

// Stats returns the derived figures of the current config.
func (e *Editor) Stats() building.Stats {
	return e.Config().Stats()
}

// Scene returns the current scene.
func (e *Editor) Scene() *scene.Scene {
	return e.assembler.Current()
}

// Summary describes the current scene.
func (e *Editor) Summary() (scene.Summary, error) {
	s := e.Scene()
	if s == nil {
		return scene.Summary{}, ErrNoScene
	}
	return s.Summarize(e.KernelName()), nil
}

// Presets lists the camera presets.
func (e *Editor) Presets() []camera.Preset {
	return camera.Presets()
}

// ApplyCameraPreset moves the viewport camera.
func (e *Editor) ApplyCameraPreset(name string) camera.State {
	return e.host.ApplyCameraPreset(name)
}

// CameraState returns the viewport camera.
func (e *Editor) CameraState() camera.State {
	return e.host.CurrentCameraState()
}

// Capture grabs the current frame and saves it to the gallery together
// with the config and camera the frame was drawn from. Nothing is saved
// when the capture fails.
func (e *Editor) Capture(ctx context.Context) (gallery.SavedImage, error) {
	frame, err := e.host.CaptureFrame(ctx)
	if err != nil {
		logrus.Infof("editor: capture failed: %v", err)
		return gallery.SavedImage{}, err
	}
	cfg := e.Config()
	if frame.Scene != nil {
		cfg = frame.Scene.Config
	}
	img, err := gallery.NewSavedImage(frame.DataURL, cfg, frame.Camera, e.now())
	if err != nil {
		return gallery.SavedImage{}, err
	}
	if err := e.gallery.Add(ctx, img); err != nil {
		return gallery.SavedImage{}, err
	}
	logrus.Debugf("editor: saved %s as %q", img.ID, img.Name)
	return img, nil
}

// Images returns the saved images whose name contains term, most recent
// first. An empty term lists everything.
func (e *Editor) Images(ctx context.Context, term string) ([]gallery.SavedImage, error) {
	if term == "" {
		return e.gallery.List(ctx)
	}
	return e.gallery.Search(ctx, term)
}

// Image returns one saved image.
func (e *Editor) Image(ctx context.Context, id string) (gallery.SavedImage, error) {
	return e.gallery.Get(ctx, id)
}

// DeleteImage removes a saved image.
func (e *Editor) DeleteImage(ctx context.Context, id string) error {
	return e.gallery.Delete(ctx, id)
}

// APIs returns the endpoint registry.
func (e *Editor) APIs() *apiconfig.Registry {
	return e.apis
}

// Process sends a saved image, or the request's own data URL, to an
// external endpoint. Failures come back as the result message.
func (e *Editor) Process(ctx context.Context, req apiconfig.Request) apiconfig.Result {
	req, res, ok := e.resolveImage(ctx, req)
	if !ok {
		return res
	}
	return apiconfig.Run(ctx, e.apis, e.processor, req)
}

// ProcessAsync resolves the image and hands the request to a background
// processor run. The result is delivered on the returned channel.
func (e *Editor) ProcessAsync(ctx context.Context, req apiconfig.Request) <-chan apiconfig.Result {
	req, res, ok := e.resolveImage(ctx, req)
	if !ok {
		ch := make(chan apiconfig.Result, 1)
		ch <- res
		return ch
	}
	return apiconfig.Start(ctx, e.apis, e.processor, req)
}

// resolveImage fills req.DataURL from the gallery when req names a saved
// image. On failure it returns the result to report instead.
func (e *Editor) resolveImage(ctx context.Context, req apiconfig.Request) (apiconfig.Request, apiconfig.Result, bool) {
	if req.ImageID == "" {
		return req, apiconfig.Result{}, true
	}
	img, err := e.gallery.Get(ctx, req.ImageID)
	if err != nil {
		return req, apiconfig.Result{Message: "Error processing image: " + err.Error()}, false
	}
	req.DataURL = img.DataURL
	return req, apiconfig.Result{}, true
}

// RunScript evaluates a parameter script and, when it yields a config,
// applies it. The returned result carries the config that was applied,
// after clamping.
func (e *Editor) RunScript(source string) (engine.EvalResult, error) {
	res, err := e.engine.Evaluate(source)
	if err != nil || res.Config == nil {
		return res, err
	}
	applied, _, err := e.SetConfig(*res.Config)
	if err != nil {
		return res, err
	}
	res.Config = &applied
	return res, nil
}

// ExportSTL writes the current scene as binary STL with Z up.
func (e *Editor) ExportSTL(w io.Writer) (int, error) {
	s := e.Scene()
	if s == nil {
		return 0, ErrNoScene
	}
	n, err := export.SceneSTL(w, s, export.STLOptions{ZUp: true})
	if err != nil {
		return n, fmt.Errorf("editor: %w", err)
	}
	return n, nil
}

// Close releases the viewport host and the gallery when they hold
// resources.
func (e *Editor) Close() {
	if c, ok := e.host.(interface{ Close() }); ok {
		c.Close()
	}
	closeGallery(e.gallery)
}
