package apiconfig

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCopiesHeaders(t *testing.T) {
	r := NewRegistry()
	a, err := r.Add(APIConfig{Name: "A", Endpoint: "https://a.example", Headers: map[string]string{"X-Key": "k"}})
	require.NoError(t, err)

	// Writes through any returned value stay local to it.
	a.Headers["X-Key"] = "changed"
	got, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-Key": "k"}, got.Headers)

	r.List()[0].Headers["X-Extra"] = "1"
	got, _ = r.Get(a.ID)
	assert.NotContains(t, got.Headers, "X-Extra")

	updated, err := r.SetEnabled(a.ID, true)
	require.NoError(t, err)
	delete(updated.Headers, "X-Key")
	got, _ = r.Get(a.ID)
	assert.Equal(t, "k", got.Headers["X-Key"])

	assert.Equal(t, map[string]string{}, (APIConfig{}).clone().Headers)
}

func TestRegistryCRUD(t *testing.T) {
	r := NewRegistry()

	_, err := r.Add(APIConfig{Name: "no endpoint"})
	assert.ErrorIs(t, err, ErrInvalid)

	headers := map[string]string{"X-Trace": "1"}
	a, err := r.Add(APIConfig{Name: "A", Endpoint: "https://a.example", Headers: headers, Enabled: true})
	require.NoError(t, err)
	b, err := r.Add(APIConfig{Name: "B", Endpoint: "https://b.example"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotNil(t, b.Headers)

	// The registry keeps its own copy of the headers.
	headers["X-Trace"] = "2"
	got, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", got.Headers["X-Trace"])

	assert.Equal(t, []string{"A", "B"}, names(r.List()))
	assert.Equal(t, []string{"A"}, names(r.Enabled()))

	_, err = r.SetEnabled(b.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names(r.Enabled()))

	b.Name = "B2"
	_, err = r.Update(b)
	require.NoError(t, err)
	got, _ = r.Get(b.ID)
	assert.Equal(t, "B2", got.Name)

	require.NoError(t, r.Delete(a.ID))
	assert.ErrorIs(t, r.Delete(a.ID), ErrNotFound)
	_, err = r.Update(a)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.SetEnabled(a.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"B2"}, names(r.List()))
}

func TestHeaders(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{"object", `{"Content-Type": "application/json"}`, map[string]string{"Content-Type": "application/json"}},
		{"malformed", `{"Content-Type": `, map[string]string{}},
		{"null", `null`, map[string]string{}},
		{"array", `["a"]`, map[string]string{}},
		{"empty", ``, map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseHeaders(tt.in))
		})
	}

	h := map[string]string{"Authorization": "Bearer x", "Content-Type": "application/json"}
	s := FormatHeaders(h)
	assert.Contains(t, s, "\n  \"Authorization\"")
	assert.Equal(t, h, ParseHeaders(s))
	assert.Equal(t, "{}", FormatHeaders(nil))
}

func TestPresets(t *testing.T) {
	p := Presets()
	require.Len(t, p, 3)
	assert.Equal(t, "OpenAI DALL-E", p[0].Name)
	assert.Equal(t, "Stability AI", p[1].Name)
	assert.Equal(t, "Midjourney (via API)", p[2].Name)
	for _, preset := range p {
		assert.True(t, strings.HasPrefix(preset.Endpoint, "https://"), preset.Name)
		assert.Equal(t, "application/json", preset.Headers["Content-Type"])
	}
}

type failingProcessor struct{}

func (failingProcessor) Process(context.Context, APIConfig, Request) (string, error) {
	return "", errors.New("upstream returned 502")
}

func TestRun(t *testing.T) {
	r := NewRegistry()
	on, _ := r.Add(APIConfig{Name: "Stability AI", Endpoint: "https://s.example", Enabled: true})
	off, _ := r.Add(APIConfig{Name: "Off", Endpoint: "https://o.example"})
	ctx := context.Background()
	mock := MockProcessor{}

	res := Run(ctx, r, mock, Request{APIID: on.ID, Prompt: "golden hour"})
	assert.True(t, res.OK)
	assert.Equal(t, "Image processed successfully using Stability AI!\nPrompt: \"golden hour\"\nResult: Enhanced building visualization with improved lighting and materials.", res.Message)

	tests := []struct {
		name string
		p    Processor
		req  Request
		want string
	}{
		{"unknown", mock, Request{APIID: "nope", Prompt: "x"}, "unknown API"},
		{"disabled", mock, Request{APIID: off.ID, Prompt: "x"}, "Off is disabled"},
		{"blank prompt", mock, Request{APIID: on.ID, Prompt: "   "}, "prompt is empty"},
		{"processor error", failingProcessor{}, Request{APIID: on.ID, Prompt: "x"}, "upstream returned 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Run(ctx, r, tt.p, tt.req)
			assert.False(t, res.OK)
			assert.True(t, strings.HasPrefix(res.Message, "Error processing image: "), res.Message)
			assert.Contains(t, res.Message, tt.want)
		})
	}
}

func TestStartIsAsynchronousAndCancellable(t *testing.T) {
	r := NewRegistry()
	api, _ := r.Add(APIConfig{Name: "Slow", Endpoint: "https://slow.example", Enabled: true})

	ctx, cancel := context.WithCancel(context.Background())
	ch := Start(ctx, r, MockProcessor{Delay: time.Hour}, Request{APIID: api.ID, Prompt: "x"})

	select {
	case <-ch:
		t.Fatal("result arrived before the delay elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case res := <-ch:
		assert.False(t, res.OK)
		assert.Contains(t, res.Message, context.Canceled.Error())
	case <-time.After(time.Second):
		t.Fatal("cancel did not stop processing")
	}
}

func names(cs []APIConfig) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}
