package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/helix/pkg/apiconfig"
	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/camera"
	"github.com/chazu/helix/pkg/editor"
	"github.com/chazu/helix/pkg/engine"
	"github.com/chazu/helix/pkg/gallery"
	"github.com/chazu/helix/pkg/kernel"
	"github.com/chazu/helix/pkg/scene"
)

// Events emitted to the frontend.
const (
	EventSceneRebuilt  = "scene:rebuilt"
	EventProcessResult = "process:result"
)

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	editor *editor.Editor
}

// ConfigResult carries the config after an edit. Errors is never nil so it
// serializes as [].
type ConfigResult struct {
	Config building.Config `json:"config"`
	Stats  building.Stats  `json:"stats"`
	Errors []string        `json:"errors"`
}

// SceneResult is the renderable scene sent to the frontend.
type SceneResult struct {
	Summary scene.Summary  `json:"summary"`
	Meshes  []*kernel.Mesh `json:"meshes"`
	Errors  []string       `json:"errors"`
}

// EvalResult is the outcome of a script together with the rebuilt meshes.
type EvalResult struct {
	Config   *building.Config     `json:"config"`
	Meshes   []*kernel.Mesh       `json:"meshes"`
	Errors   []engine.EvalError   `json:"errors"`
	Warnings []engine.EvalWarning `json:"warnings"`
}

// ScreenshotResult is the outcome of TakeScreenshot.
type ScreenshotResult struct {
	Image *gallery.SavedImage `json:"image"`
	Error string              `json:"error,omitempty"`
}

// NewApp creates an App around ed.
func NewApp(ed *editor.Editor) *App {
	return &App{editor: ed}
}

// startup is called by Wails on app startup. The context is saved for the
// runtime calls (dialogs, events).
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	kernelName := a.editor.KernelName()
	a.editor.Observe(func(s *scene.Scene) {
		runtime.EventsEmit(ctx, EventSceneRebuilt, s.Summarize(kernelName))
	})
}

func (a *App) shutdown(context.Context) {
	a.editor.Close()
}

func (a *App) configResult(c building.Config, err error) ConfigResult {
	res := ConfigResult{Config: c, Stats: c.Stats(), Errors: []string{}}
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
	}
	return res
}

// GetConfig returns the current config and its derived figures.
func (a *App) GetConfig() ConfigResult {
	return a.configResult(a.editor.Config(), nil)
}

// FieldRanges returns the slider bounds keyed by field name.
func (a *App) FieldRanges() map[string]building.Range {
	return building.Ranges
}

// UpdateField edits one field. On error the previous config is returned
// alongside the message.
func (a *App) UpdateField(field string, value any) ConfigResult {
	c, _, err := a.editor.Update(field, value)
	if err != nil {
		logrus.Warnf("UpdateField %s: %v", field, err)
	}
	return a.configResult(c, err)
}

// SetConfig replaces the whole config.
func (a *App) SetConfig(c building.Config) ConfigResult {
	applied, _, err := a.editor.SetConfig(c)
	return a.configResult(applied, err)
}

// GetScene returns the current meshes.
func (a *App) GetScene() SceneResult {
	res := SceneResult{Meshes: []*kernel.Mesh{}, Errors: []string{}}
	sum, err := a.editor.Summary()
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	res.Summary = sum
	res.Meshes = a.editor.Scene().Meshes
	return res
}

// CameraPresets lists the camera presets.
func (a *App) CameraPresets() []camera.Preset {
	return a.editor.Presets()
}

// ApplyCameraPreset moves the camera; unknown names select perspective.
func (a *App) ApplyCameraPreset(name string) camera.State {
	return a.editor.ApplyCameraPreset(name)
}

// TakeScreenshot captures the viewport into the gallery.
func (a *App) TakeScreenshot() ScreenshotResult {
	img, err := a.editor.Capture(a.context())
	if err != nil {
		return ScreenshotResult{Error: err.Error()}
	}
	return ScreenshotResult{Image: &img}
}

// Gallery lists saved images whose name contains term.
func (a *App) Gallery(term string) []gallery.SavedImage {
	imgs, err := a.editor.Images(a.context(), term)
	if err != nil {
		logrus.Errorf("Gallery: %v", err)
	}
	if imgs == nil {
		imgs = []gallery.SavedImage{}
	}
	return imgs
}

// DeleteImage removes a saved image. It returns an error message or "".
func (a *App) DeleteImage(id string) string {
	return errString(a.editor.DeleteImage(a.context(), id))
}

// DownloadImage asks for a destination and writes the image's PNG there.
// It returns an error message or "". Cancelling the dialog is not an error.
func (a *App) DownloadImage(id string) string {
	img, err := a.editor.Image(a.context(), id)
	if err != nil {
		return err.Error()
	}
	path, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Save image",
		DefaultFilename: gallery.Filename(img),
		Filters:         []runtime.FileFilter{{DisplayName: "PNG images", Pattern: "*.png"}},
	})
	if err != nil || path == "" {
		return errString(err)
	}
	return errString(writeImage(path, img))
}

func writeImage(path string, img gallery.SavedImage) error {
	raw, err := gallery.DecodePNG(img)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// ListAPIs returns the configured endpoints.
func (a *App) ListAPIs() []apiconfig.APIConfig {
	return a.editor.APIs().List()
}

// APIPresets returns the endpoint templates.
func (a *App) APIPresets() []apiconfig.Preset {
	return apiconfig.Presets()
}

// SaveAPI adds c when it has no ID and updates it otherwise.
func (a *App) SaveAPI(c apiconfig.APIConfig) (apiconfig.APIConfig, error) {
	if c.ID == "" {
		return a.editor.APIs().Add(c)
	}
	return a.editor.APIs().Update(c)
}

// DeleteAPI removes an endpoint.
func (a *App) DeleteAPI(id string) error {
	return a.editor.APIs().Delete(id)
}

// SetAPIEnabled toggles an endpoint.
func (a *App) SetAPIEnabled(id string, enabled bool) (apiconfig.APIConfig, error) {
	return a.editor.APIs().SetEnabled(id, enabled)
}

// ProcessImage starts processing in the background. The result arrives as
// an EventProcessResult event.
func (a *App) ProcessImage(req apiconfig.Request) {
	ch := a.editor.ProcessAsync(a.context(), req)
	go func() {
		runtime.EventsEmit(a.ctx, EventProcessResult, <-ch)
	}()
}

// Evaluate runs a parameter script and returns the rebuilt meshes.
// This is the binding behind the script panel.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []*kernel.Mesh{},
		Errors:   []engine.EvalError{},
		Warnings: []engine.EvalWarning{},
	}

	res, err := a.editor.RunScript(source)
	if err != nil {
		logrus.Errorf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, engine.EvalError{Message: err.Error()})
		return result
	}
	result.Errors = append(result.Errors, res.Errors...)
	result.Warnings = append(result.Warnings, res.Warnings...)
	if len(result.Errors) > 0 || res.Config == nil {
		return result
	}

	result.Config = res.Config
	if s := a.editor.Scene(); s != nil {
		result.Meshes = s.Meshes
	}
	return result
}

// ExportSTL asks for a destination and writes the tower as binary STL.
func (a *App) ExportSTL() string {
	path, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Export STL",
		DefaultFilename: "helix-tower.stl",
		Filters:         []runtime.FileFilter{{DisplayName: "STL files", Pattern: "*.stl"}},
	})
	if err != nil || path == "" {
		return errString(err)
	}
	return errString(a.writeSTL(path))
}

func (a *App) writeSTL(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := a.editor.ExportSTL(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	logrus.Infof("exported %d triangles to %s", n, path)
	return nil
}

// context returns the Wails context, or Background before startup.
func (a *App) context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
