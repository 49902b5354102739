package editor

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/chazu/helix/pkg/apiconfig"
	"github.com/chazu/helix/pkg/gallery"
	"github.com/chazu/helix/pkg/scene"
	"github.com/chazu/helix/pkg/settings"
	"github.com/chazu/helix/pkg/viewport"
)

// Constructors used by Open, swapped out in tests.
var (
	newKernel = scene.NewKernel
	newHost   = viewport.NewSoftware
)

// Open wires an Editor from settings: the kernel backend, a software
// viewport of the configured size, and a SQLite gallery when a path is
// set. Close releases all of them.
func Open(ctx context.Context, s *settings.Settings) (*Editor, error) {
	k, err := newKernel(s.Kernel, s.MeshCells)
	if err != nil {
		return nil, err
	}

	var store gallery.Store = gallery.NewMemoryStore()
	if s.GalleryPath != "" {
		db, err := gallery.OpenSQLite(ctx, s.GalleryPath)
		if err != nil {
			return nil, fmt.Errorf("editor: open gallery: %w", err)
		}
		store = db
	}

	opts := viewport.DefaultOptions()
	opts.Width, opts.Height = s.CaptureWidth, s.CaptureHeight
	opts.Delay, opts.Timeout = s.CaptureDelay, s.CaptureTimeout

	host := newHost(opts)
	ed, err := New(Options{
		Kernel:    k,
		Host:      host,
		Gallery:   store,
		Processor: apiconfig.MockProcessor{Delay: s.ProcessDelay},
		Initial:   s.Building,
	})
	if err != nil {
		host.Close()
		closeGallery(store)
		return nil, err
	}
	logrus.Infof("editor: %s kernel, %dx%d captures", k.Name(), opts.Width, opts.Height)
	return ed, nil
}

func closeGallery(store gallery.Store) {
	c, ok := store.(interface{ Close() error })
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logrus.Warnf("editor: close gallery: %v", err)
	}
}
