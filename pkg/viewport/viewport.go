// Package viewport presents a scene from a camera and captures frames of it.
// A Host is whatever currently shows the model: the desktop webview forwards
// to the browser canvas, while Software rasterizes frames itself so that
// captures work headless.
package viewport

import (
	"context"
	"errors"

	"github.com/chazu/helix/pkg/camera"
	"github.com/chazu/helix/pkg/scene"
)

// Capture errors.
var (
	ErrCaptureUnavailable = errors.New("viewport: capture unavailable")
	ErrCaptureInProgress  = errors.New("viewport: capture already in progress")
)

// Host shows a scene and can hand back what is on screen.
type Host interface {
	// Show replaces the displayed scene.
	Show(s *scene.Scene)

	// CaptureFrame returns the current frame together with the scene and
	// camera it was drawn from. Only one capture runs at a time.
	CaptureFrame(ctx context.Context) (Frame, error)

	CurrentCameraState() camera.State

	// ApplyCameraPreset moves the camera to the named preset, falling back
	// to the perspective preset for unknown names.
	ApplyCameraPreset(name string) camera.State
}

// Frame is one captured image and what it shows.
type Frame struct {
	// DataURL is "data:image/png;base64,...".
	DataURL string
	Scene   *scene.Scene
	Camera  camera.State
}

// DataURLPrefix starts every captured frame.
const DataURLPrefix = "data:image/png;base64,"
