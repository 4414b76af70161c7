// Package config holds the build/init-time constants recognized by the
// world streaming core, and the handful of runtime-tunable render settings
// carried over from the host game.
package config

import (
	"errors"
	"sync"
)

// NoiseVariant selects the column generator dispatched at world init.
type NoiseVariant int

const (
	// NoiseFBM is the default fractal-noise generator described in SPEC_FULL §4.4.
	NoiseFBM NoiseVariant = iota
	// NoiseCube fills a single test chunk with a fixed pattern.
	NoiseCube
	// NoiseFlat produces a 3-layer flat world (bedrock/dirt/grass).
	NoiseFlat
)

func (v NoiseVariant) String() string {
	switch v {
	case NoiseFBM:
		return "fbm"
	case NoiseCube:
		return "cube"
	case NoiseFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// Config carries the constants SPEC_FULL §6 recognizes at build/init time.
type Config struct {
	// CW is the chunk horizontal extent; must be a power of two.
	CW int
	// CH is the chunk vertical extent.
	CH int
	// N is WORLD_WIDTH, the grid side length; must be odd.
	N int
	// W is the number of worker goroutines.
	W int
	// Noise selects the column generator.
	Noise NoiseVariant
	// Seed feeds the terrain generator's permutation tables.
	Seed uint64
	// DatabaseMaxJobs bounds the persistence queue depth.
	DatabaseMaxJobs int
	// AtlasDim is the texture atlas's tile-grid dimension, used to bound
	// the mesh packer's u/v fields.
	AtlasDim int
}

// Default returns the example configuration named in spec.md §6.
func Default() Config {
	return Config{
		CW:              32,
		CH:              256,
		N:               25,
		W:               4,
		Noise:           NoiseFBM,
		Seed:            1337,
		DatabaseMaxJobs: 4096,
		AtlasDim:        16,
	}
}

var (
	errCW    = errors.New("config: CW must be a positive power of two")
	errCH    = errors.New("config: CH must be positive")
	errN     = errors.New("config: N must be a positive odd number")
	errW     = errors.New("config: W must be positive")
	errQueue = errors.New("config: DatabaseMaxJobs must be positive")
)

// Validate reports the first invariant violation found in cfg.
func (c Config) Validate() error {
	switch {
	case c.CW <= 0 || c.CW&(c.CW-1) != 0:
		return errCW
	case c.CH <= 0:
		return errCH
	case c.N <= 0 || c.N%2 == 0:
		return errN
	case c.W <= 0:
		return errW
	case c.DatabaseMaxJobs <= 0:
		return errQueue
	}
	return nil
}

// RenderSettings holds the small set of render knobs the host can flip at
// runtime; kept separate from Config because Config is fixed for a World's
// lifetime while these may change every frame.
type RenderSettings struct {
	mu             sync.RWMutex
	renderDistance int
	wireframeMode  bool
}

// NewRenderSettings returns defaults matching the teacher's prior values.
func NewRenderSettings() *RenderSettings {
	return &RenderSettings{renderDistance: 25}
}

// RenderDistance returns the current render distance in chunks.
func (r *RenderSettings) RenderDistance() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.renderDistance
}

// SetRenderDistance clamps and sets the render distance in chunks.
func (r *RenderSettings) SetRenderDistance(d int) {
	if d < 1 {
		d = 1
	}
	if d > 64 {
		d = 64
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderDistance = d
}

// WireframeMode reports whether wireframe rendering is enabled.
func (r *RenderSettings) WireframeMode() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.wireframeMode
}

// SetWireframeMode toggles wireframe rendering.
func (r *RenderSettings) SetWireframeMode(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wireframeMode = enabled
}
