// Package gallery keeps captured frames together with the configuration and
// camera they were taken with. Saved images are immutable: they are added,
// listed most recent first, and deleted by id.
package gallery

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/samber/lo"

	"github.com/chazu/helix/pkg/building"
	"github.com/chazu/helix/pkg/camera"
)

const dataURLPrefix = "data:image/png;base64,"

// Gallery errors.
var (
	ErrNotFound = errors.New("gallery: image not found")
	ErrNotPNG   = errors.New("gallery: data URL is not a PNG image")
)

// SavedImage is one captured frame.
type SavedImage struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	DataURL        string          `json:"dataUrl"`
	Timestamp      int64           `json:"timestamp"` // Unix milliseconds
	BuildingConfig building.Config `json:"buildingConfig"`
	CameraPosition [3]float64      `json:"cameraPosition"`
	CameraTarget   [3]float64      `json:"cameraTarget"`
}

// Store persists saved images.
type Store interface {
	Add(ctx context.Context, img SavedImage) error
	// List returns every image, most recent first.
	List(ctx context.Context) ([]SavedImage, error)
	Get(ctx context.Context, id string) (SavedImage, error)
	Delete(ctx context.Context, id string) error
	// Search returns the images whose name contains term, ignoring case.
	Search(ctx context.Context, term string) ([]SavedImage, error)
}

// DefaultName returns the display name of an image taken at t.
func DefaultName(t time.Time) string {
	return "Building_" + t.Local().Format("1/2/2006, 3:04:05 PM")
}

// NewSavedImage builds a SavedImage from a captured data URL. Config holds
// no references, so the saved record never shares state with the editor.
func NewSavedImage(dataURL string, cfg building.Config, cam camera.State, now time.Time) (SavedImage, error) {
	if _, err := decodeDataURL(dataURL); err != nil {
		return SavedImage{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return SavedImage{}, fmt.Errorf("gallery: new id: %w", err)
	}

	img := SavedImage{
		ID:             id.String(),
		Name:           DefaultName(now),
		DataURL:        dataURL,
		Timestamp:      now.UnixMilli(),
		BuildingConfig: cfg,
		CameraPosition: [3]float64{cam.Position.X, cam.Position.Y, cam.Position.Z},
		CameraTarget:   [3]float64{cam.Target.X, cam.Target.Y, cam.Target.Z},
	}
	return img, nil
}

var filenameReplacer = strings.NewReplacer("/", "-", "\\", "-", ":", "-")

// Filename returns the download name of img.
func Filename(img SavedImage) string {
	return filenameReplacer.Replace(img.Name) + ".png"
}

// DecodePNG returns the PNG bytes carried by img's data URL.
func DecodePNG(img SavedImage) ([]byte, error) {
	return decodeDataURL(img.DataURL)
}

func decodeDataURL(dataURL string) ([]byte, error) {
	payload, ok := strings.CutPrefix(dataURL, dataURLPrefix)
	if !ok {
		return nil, ErrNotPNG
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPNG, err)
	}
	if !filetype.Is(raw, "png") {
		return nil, ErrNotPNG
	}
	return raw, nil
}

func filterByName(imgs []SavedImage, term string) []SavedImage {
	term = strings.ToLower(term)
	return lo.Filter(imgs, func(img SavedImage, _ int) bool {
		return strings.Contains(strings.ToLower(img.Name), term)
	})
}
