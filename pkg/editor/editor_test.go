package editor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/helix/pkg/apiconfig"
	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/camera"
	"github.com/chazu/helix/pkg/graph"
	"github.com/chazu/helix/pkg/scene"
	"github.com/chazu/helix/pkg/viewport"
)

func newEditor(t *testing.T) *Editor {
	t.Helper()
	e, err := New(Options{
		Host:      viewport.NewSoftware(viewport.Options{Width: 64, Height: 48}),
		Processor: apiconfig.MockProcessor{},
		Now:       func() time.Time { return time.Date(2026, 5, 6, 7, 8, 9, 0, time.Local) },
	})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestNewBuildsDefaultScene(t *testing.T) {
	e := newEditor(t)
	assert.Equal(t, building.Default(), e.Config())
	require.NotNil(t, e.Scene())

	sum, err := e.Summary()
	require.NoError(t, err)
	assert.Equal(t, "facet", sum.Kernel)
	assert.Equal(t, 30, sum.ByRole[string(graph.RolePlate)])
	assert.Equal(t, 32, sum.ByRole[string(graph.RoleLouver)])
}

func TestUpdate(t *testing.T) {
	e := newEditor(t)
	before := e.Scene()

	cfg, s, err := e.Update(building.FieldFloors, 40.0)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Floors)
	assert.Len(t, s.ByRole(graph.RolePlate), 40)
	assert.NotSame(t, before, s)
	assert.Equal(t, 30, before.Config.Floors, "older scenes keep their config")

	// Legacy names write the canonical fields.
	cfg, _, err = e.Update(building.FieldWidth, 30.0)
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.MajorAxis)

	// Values are clamped to their slider range.
	cfg, _, err = e.Update(building.FieldHeight, 1000.0)
	require.NoError(t, err)
	assert.Equal(t, 300.0, cfg.Height)
}

func TestUpdateInvalidColorKeepsPrevious(t *testing.T) {
	e := newEditor(t)
	gen := e.Scene().Generation

	cfg, s, err := e.Update(building.FieldGlassColor, "sky")
	assert.ErrorIs(t, err, building.ErrInvalidColor)
	assert.Equal(t, "#87CEEB", cfg.GlassColor)
	assert.Equal(t, gen, s.Generation)
	assert.Equal(t, building.Default(), e.Config())
}

func TestLouverToggle(t *testing.T) {
	e := newEditor(t)
	_, s, err := e.Update(building.FieldEnableLouvers, false)
	require.NoError(t, err)
	assert.Empty(t, s.ByRole(graph.RoleLouver))

	_, s, err = e.Update(building.FieldEnableLouvers, true)
	require.NoError(t, err)
	assert.Len(t, s.ByRole(graph.RoleLouver), 32)
}

func TestSetConfigClamps(t *testing.T) {
	e := newEditor(t)
	c := building.Default()
	c.Floors = 500
	c.LouverColor = "nope"

	got, _, err := e.SetConfig(c)
	require.NoError(t, err)
	assert.Equal(t, 80, got.Floors)
	assert.Equal(t, "#A0A0A0", got.LouverColor)
}

func TestScenarioStats(t *testing.T) {
	e := newEditor(t)
	s := e.Stats()
	assert.Equal(t, 4.0, s.FloorHeight)
	assert.Equal(t, 60.0, s.TotalRotation)
	assert.InDelta(t, 235.6, s.FloorArea, 0.05)
}

func TestCameraPresets(t *testing.T) {
	e := newEditor(t)
	assert.Len(t, e.Presets(), len(camera.Names()))

	st := e.ApplyCameraPreset("aerial")
	assert.Equal(t, graph.Vec3{X: 100, Y: 150, Z: 100}, st.Position)
	assert.Equal(t, st, e.CameraState())
}

func TestCaptureSavesDeepCopy(t *testing.T) {
	e := newEditor(t)
	ctx := context.Background()
	e.ApplyCameraPreset("front")

	img, err := e.Capture(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Building_5/6/2026, 7:08:09 AM", img.Name)
	assert.Equal(t, [3]float64{0, 60, 80}, img.CameraPosition)
	assert.Equal(t, building.Default(), img.BuildingConfig)

	_, _, err = e.Update(building.FieldFloors, 70.0)
	require.NoError(t, err)

	saved, err := e.Image(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, saved.BuildingConfig.Floors)

	imgs, err := e.Images(ctx, "")
	require.NoError(t, err)
	assert.Len(t, imgs, 1)
	imgs, err = e.Images(ctx, "building_5")
	require.NoError(t, err)
	assert.Len(t, imgs, 1)
	imgs, err = e.Images(ctx, "tower")
	require.NoError(t, err)
	assert.Empty(t, imgs)

	require.NoError(t, e.DeleteImage(ctx, img.ID))
	imgs, err = e.Images(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, imgs)
}

type failingHost struct{ viewport.Host }

func (failingHost) Show(*scene.Scene) {}

func (failingHost) CaptureFrame(context.Context) (viewport.Frame, error) {
	return viewport.Frame{}, viewport.ErrCaptureUnavailable
}

func (failingHost) CurrentCameraState() camera.State { return camera.Resolve("").State }

func TestFailedCaptureSavesNothing(t *testing.T) {
	e, err := New(Options{Host: failingHost{}})
	require.NoError(t, err)

	_, err = e.Capture(context.Background())
	assert.True(t, errors.Is(err, viewport.ErrCaptureUnavailable))

	imgs, err := e.Images(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, imgs)
}

// staleHost reports a frame drawn from an older scene than the one the
// editor currently holds.
type staleHost struct {
	viewport.Host
	frame viewport.Frame
}

func (h staleHost) CaptureFrame(context.Context) (viewport.Frame, error) { return h.frame, nil }

func TestCaptureSavesRenderedConfigAndCamera(t *testing.T) {
	old := building.Default()
	old.Floors = 12
	top := camera.Resolve("top").State
	sw := viewport.NewSoftware(viewport.Options{Width: 16, Height: 12})
	t.Cleanup(sw.Close)
	host := staleHost{
		Host: sw,
		frame: viewport.Frame{
			DataURL: viewport.DataURLPrefix + "iVBORw0KGgoAAAANSUhEUg==",
			Scene:   &scene.Scene{Config: old},
			Camera:  top,
		},
	}
	e, err := New(Options{Host: host})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	require.Equal(t, building.Default(), e.Config())

	img, err := e.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, img.BuildingConfig.Floors)
	assert.Equal(t, [3]float64{top.Position.X, top.Position.Y, top.Position.Z}, img.CameraPosition)
	assert.NotEqual(t, top, e.CameraState())
}

func TestProcessSavedImage(t *testing.T) {
	e := newEditor(t)
	ctx := context.Background()
	api, err := e.APIs().Add(apiconfig.APIConfig{Name: "OpenAI DALL-E", Endpoint: "https://api.example", Enabled: true})
	require.NoError(t, err)
	img, err := e.Capture(ctx)
	require.NoError(t, err)

	res := <-e.ProcessAsync(ctx, apiconfig.Request{APIID: api.ID, ImageID: img.ID, Prompt: "night render"})
	assert.True(t, res.OK, res.Message)
	assert.Contains(t, res.Message, "OpenAI DALL-E")

	res = e.Process(ctx, apiconfig.Request{APIID: api.ID, ImageID: "missing", Prompt: "x"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "not found")

	res = <-e.ProcessAsync(ctx, apiconfig.Request{APIID: api.ID, ImageID: "missing", Prompt: "x"})
	assert.False(t, res.OK)
	assert.True(t, strings.HasPrefix(res.Message, "Error processing image:"), res.Message)

	res = <-e.ProcessAsync(ctx, apiconfig.Request{APIID: "nope", Prompt: "x"})
	assert.Contains(t, res.Message, "unknown API")
}

func TestRunScript(t *testing.T) {
	e := newEditor(t)

	res, err := e.RunScript(`(tower :floors 20 :height 500 :louvers false)`)
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.NotNil(t, res.Config)
	assert.Equal(t, 300.0, res.Config.Height, "applied config is clamped")
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, *res.Config, e.Config())
	assert.Empty(t, e.Scene().ByRole(graph.RoleLouver))

	before := e.Config()
	res, err = e.RunScript(`(tower :floors "many")`)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Errors)
	assert.Equal(t, before, e.Config())
}

func TestExportSTL(t *testing.T) {
	e := newEditor(t)
	var buf bytes.Buffer
	n, err := e.ExportSTL(&buf)
	require.NoError(t, err)
	assert.Equal(t, e.Scene().TriangleCount(), n)
	assert.Equal(t, 84+50*n, buf.Len())
}
