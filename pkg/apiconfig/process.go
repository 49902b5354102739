package apiconfig

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Request asks for a captured frame to be processed by one endpoint.
type Request struct {
	APIID   string `json:"apiId"`
	Prompt  string `json:"prompt"`
	ImageID string `json:"imageId,omitempty"`
	DataURL string `json:"-"`
}

// Result is what the user sees after processing. Failures are reported in
// Message rather than as errors.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Processor sends a frame to an endpoint.
type Processor interface {
	Process(ctx context.Context, api APIConfig, req Request) (string, error)
}

// MockProcessor pretends to call the endpoint: it waits Delay and reports
// success.
type MockProcessor struct {
	Delay time.Duration
}

// DefaultProcessDelay is the mock latency the editor uses when no processor
// is configured.
const DefaultProcessDelay = 2 * time.Second

func (m MockProcessor) Process(ctx context.Context, api APIConfig, req Request) (string, error) {
	timer := time.NewTimer(m.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return fmt.Sprintf("Image processed successfully using %s!\nPrompt: %q\nResult: Enhanced building visualization with improved lighting and materials.",
		api.Name, req.Prompt), nil
}

// Run resolves the endpoint in r and hands req to p. It never returns an
// error: every failure becomes a Result message.
func Run(ctx context.Context, r *Registry, p Processor, req Request) Result {
	fail := func(format string, args ...any) Result {
		msg := "Error processing image: " + fmt.Sprintf(format, args...)
		logrus.Infof("apiconfig: %s", msg)
		return Result{Message: msg}
	}

	api, err := r.Get(req.APIID)
	if err != nil {
		return fail("unknown API %q", req.APIID)
	}
	if !api.Enabled {
		return fail("%s is disabled", api.Name)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return fail("prompt is empty")
	}

	text, err := p.Process(ctx, api, req)
	if err != nil {
		return fail("%v", err)
	}
	return Result{OK: true, Message: text}
}

// Start runs Run on its own goroutine and delivers the result on the
// returned channel.
func Start(ctx context.Context, r *Registry, p Processor, req Request) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		ch <- Run(ctx, r, p, req)
	}()
	return ch
}
