// Package apiconfig manages the external image-processing endpoints that
// captured frames can be sent to.
package apiconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Registry errors.
var (
	ErrNotFound = errors.New("apiconfig: endpoint not found")
	ErrInvalid  = errors.New("apiconfig: name and endpoint are required")
)

// APIConfig describes one external endpoint.
type APIConfig struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Endpoint string            `json:"endpoint"`
	APIKey   string            `json:"apiKey"`
	Headers  map[string]string `json:"headers"`
	Enabled  bool              `json:"enabled"`
}

// clone returns c with its own header map, never nil.
func (c APIConfig) clone() APIConfig {
	out := c
	out.Headers = make(map[string]string, len(c.Headers))
	if err := copier.CopyWithOption(&out.Headers, c.Headers, copier.Option{DeepCopy: true}); err != nil {
		logrus.Errorf("apiconfig: copy headers of %q: %v", c.Name, err)
	}
	return out
}

// Preset is a known endpoint the form can be prefilled from.
type Preset struct {
	Name     string            `json:"name"`
	Endpoint string            `json:"endpoint"`
	Headers  map[string]string `json:"headers"`
}

// Presets returns the built-in endpoint presets.
func Presets() []Preset {
	jsonHeaders := func() map[string]string {
		return map[string]string{"Content-Type": "application/json"}
	}
	return []Preset{
		{"OpenAI DALL-E", "https://api.openai.com/v1/images/generations", jsonHeaders()},
		{"Stability AI", "https://api.stability.ai/v1/generation/stable-diffusion-xl-1024-v1-0/text-to-image", jsonHeaders()},
		{"Midjourney (via API)", "https://api.midjourney.com/v1/imagine", jsonHeaders()},
	}
}

// ParseHeaders decodes a JSON object of header names to values. Malformed
// input yields an empty map.
func ParseHeaders(s string) map[string]string {
	var h map[string]string
	if err := json.Unmarshal([]byte(s), &h); err != nil || h == nil {
		return map[string]string{}
	}
	return h
}

// FormatHeaders encodes headers as indented JSON.
func FormatHeaders(h map[string]string) string {
	if h == nil {
		h = map[string]string{}
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Registry holds the configured endpoints in insertion order. It is safe
// for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	configs []APIConfig
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add stores c under a fresh id and returns the stored copy.
func (r *Registry) Add(c APIConfig) (APIConfig, error) {
	if c.Name == "" || c.Endpoint == "" {
		return APIConfig{}, ErrInvalid
	}
	c = c.clone()
	c.ID = uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = append(r.configs, c)
	return c.clone(), nil
}

// Update replaces the endpoint with c.ID.
func (r *Registry) Update(c APIConfig) (APIConfig, error) {
	if c.Name == "" || c.Endpoint == "" {
		return APIConfig{}, ErrInvalid
	}
	c = c.clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(c.ID)
	if i < 0 {
		return APIConfig{}, fmt.Errorf("%w: %s", ErrNotFound, c.ID)
	}
	r.configs[i] = c
	return c.clone(), nil
}

// Delete removes the endpoint with id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.configs = append(r.configs[:i:i], r.configs[i+1:]...)
	return nil
}

// SetEnabled toggles the endpoint with id.
func (r *Registry) SetEnabled(id string, enabled bool) (APIConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return APIConfig{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.configs[i].Enabled = enabled
	return r.configs[i].clone(), nil
}

// Get returns the endpoint with id.
func (r *Registry) Get(id string) (APIConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.index(id)
	if i < 0 {
		return APIConfig{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.configs[i].clone(), nil
}

// List returns every endpoint.
func (r *Registry) List() []APIConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(r.configs, func(c APIConfig, _ int) APIConfig { return c.clone() })
}

// Enabled returns the endpoints that can be used for processing.
func (r *Registry) Enabled() []APIConfig {
	return lo.Filter(r.List(), func(c APIConfig, _ int) bool { return c.Enabled })
}

func (r *Registry) index(id string) int {
	_, i, ok := lo.FindIndexOf(r.configs, func(c APIConfig) bool { return c.ID == id })
	if !ok {
		return -1
	}
	return i
}
