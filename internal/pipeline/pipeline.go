// Package pipeline runs one autocrop pass over files on disk: load the
// coverage map, solve or reuse the crop rectangle, crop every channel with
// the same margins, write the results, and persist the rectangle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ironsheep/stack-autocrop/internal/autocrop"
	"github.com/ironsheep/stack-autocrop/internal/config"
	"github.com/ironsheep/stack-autocrop/internal/cropfile"
	"github.com/ironsheep/stack-autocrop/internal/imaging"
)

// Runner carries the configuration, the coverage map cache and the crop
// state of every channel file it has written. It is safe for concurrent use.
type Runner struct {
	cfg    *config.Config
	cache  *imaging.ImageCache
	states *stateTable
}

type stateTable struct {
	mu sync.Mutex
	m  map[string]channelState
}

type channelState struct {
	state  autocrop.CropState
	output string
}

// Request describes one full run.
type Request struct {
	Coverage string
	Channels []string

	// Reuse loads the rectangle from the coverage map's sidecar instead of
	// solving. The config's reuse_rectangle turns it on for every run.
	Reuse bool

	// Persist writes the rectangle to the sidecar after solving.
	Persist bool
}

// Rectangle is the crop chosen for a coverage map.
type Rectangle struct {
	Coverage string           `json:"coverage"`
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Box      autocrop.Box     `json:"box"`
	Margins  autocrop.Margins `json:"margins"`
	Reused   bool             `json:"reused"`
	Manual   bool             `json:"manual,omitempty"`
	Sidecar  string           `json:"sidecar,omitempty"`
	Solve    *autocrop.Result `json:"solve,omitempty"`
}

// ChannelOutput reports what happened to one channel file.
type ChannelOutput struct {
	Name     string `json:"name"`
	Source   string `json:"source"`
	Output   string `json:"output"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	BitDepth int    `json:"bit_depth"`
	Skipped  bool   `json:"skipped,omitempty"`
}

// Outcome is the result of Run.
type Outcome struct {
	Rectangle *Rectangle      `json:"rectangle"`
	Channels  []ChannelOutput `json:"channels"`
}

// New creates a runner. A nil cfg means config.Default(); a nil cache gets
// a fresh one.
func New(cfg *config.Config, cache *imaging.ImageCache) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	if cache == nil {
		cache = imaging.NewImageCache()
	}
	return &Runner{
		cfg:    cfg,
		cache:  cache,
		states: &stateTable{m: make(map[string]channelState)},
	}
}

// WithConfig returns a runner using cfg that shares r's cache and channel
// crop state.
func (r *Runner) WithConfig(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg, cache: r.cache, states: r.states}
}

// Config returns the runner's configuration.
func (r *Runner) Config() *config.Config { return r.cfg }

// CoverageMap loads path through the cache and converts it with the
// configured reduction and value scale.
func (r *Runner) CoverageMap(path string) (*imaging.CoverageMap, error) {
	img, err := r.cache.Load(path)
	if err != nil {
		return nil, err
	}
	m, err := imaging.NewCoverageMap(img, r.cfg.Reduction(), r.cfg.ValueScale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Rectangle picks the crop for a coverage map. With reuse set and a sidecar
// present, the stored rectangle is used and the solver is skipped; a missing
// sidecar falls back to solving. A failed solve returns the rectangle (with
// Solve filled in) together with an error wrapping the solve's Kind.
func (r *Runner) Rectangle(ctx context.Context, coverage string, reuse, persist bool) (*Rectangle, error) {
	m, err := r.CoverageMap(coverage)
	if err != nil {
		return nil, err
	}

	rect := &Rectangle{Coverage: coverage, Width: m.Width(), Height: m.Height()}

	if reuse || r.cfg.ReuseRectangle {
		rec, err := cropfile.LoadFor(coverage, m.Width(), m.Height())
		switch {
		case err == nil:
			log.Printf("Reusing %s from %s", rec, cropfile.PathFor(coverage))
			rect.Box = rec.Box
			rect.Margins = rec.Margins
			rect.Reused = true
			rect.Manual = rec.Manual
			rect.Sidecar = cropfile.PathFor(coverage)
			return rect, nil
		case errors.Is(err, os.ErrNotExist):
			log.Printf("No crop record for %s, solving", coverage)
		default:
			return nil, err
		}
	}

	opts, err := r.cfg.SolveOptions()
	if err != nil {
		return nil, err
	}
	res := autocrop.Solve(ctx, m, opts)
	rect.Solve = &res
	if !res.Success {
		return rect, fmt.Errorf("autocrop %s: %w", coverage, res.Err)
	}
	if res.Warning != autocrop.KindNone {
		log.Printf("Autocrop %s: %s", coverage, res.Diagnostics)
	}

	rect.Box = res.Box
	rect.Margins = res.Margins

	if persist {
		path := cropfile.PathFor(coverage)
		if err := cropfile.Save(path, cropfile.NewRecord(coverage, res.Box, m.Width(), m.Height())); err != nil {
			return rect, err
		}
		rect.Sidecar = path
	}
	return rect, nil
}

// CropChannels crops every channel file by m and writes "<name>_cropped"
// next to it, or into the configured output directory. Channels must be
// width x height, the size of the coverage map the margins came from.
// Files this runner has already cropped are reported as skipped.
func (r *Runner) CropChannels(ctx context.Context, paths []string, m autocrop.Margins, width, height int) ([]ChannelOutput, error) {
	outputs := make([]ChannelOutput, len(paths))
	channels := make([]autocrop.Channel, len(paths))

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		outputs[i] = ChannelOutput{Name: name, Source: path}

		if prev, ok := r.state(path); ok && prev.state.Cropped {
			if prev.state.Margins != m {
				return nil, fmt.Errorf("channel %s was already cropped with %s", path, prev.state.Margins)
			}
			outputs[i].Output = prev.output
			outputs[i].Skipped = true
			channels[i] = autocrop.Channel{Name: name, State: prev.state}
			continue
		}

		img, err := imaging.Decode(path)
		if err != nil {
			return nil, err
		}
		if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
			return nil, fmt.Errorf("channel %s is %dx%d, coverage map is %dx%d", path, b.Dx(), b.Dy(), width, height)
		}
		channels[i] = autocrop.Channel{Name: name, Image: img, State: autocrop.Uncropped}
	}

	cropped, err := autocrop.ApplyCropAll(channels, m)
	if err != nil {
		return nil, err
	}

	for i, ch := range cropped {
		if outputs[i].Skipped {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out := imaging.CroppedPath(paths[i], r.cfg.OutputDir)
		if err := imaging.Save(out, ch.Image); err != nil {
			return nil, err
		}
		r.setState(paths[i], channelState{state: ch.State, output: out})

		b := ch.Image.Bounds()
		outputs[i].Output = out
		outputs[i].Width = b.Dx()
		outputs[i].Height = b.Dy()
		outputs[i].BitDepth = imaging.BitDepth(ch.Image)
	}
	return outputs, nil
}

// Run picks the rectangle for req.Coverage and applies it to req.Channels.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	rect, err := r.Rectangle(ctx, req.Coverage, req.Reuse, req.Persist)
	if err != nil {
		return &Outcome{Rectangle: rect}, err
	}

	outputs, err := r.CropChannels(ctx, req.Channels, rect.Margins, rect.Width, rect.Height)
	if err != nil {
		return &Outcome{Rectangle: rect}, err
	}
	return &Outcome{Rectangle: rect, Channels: outputs}, nil
}

// CropState returns the crop state of a channel file.
func (r *Runner) CropState(path string) autocrop.CropState {
	s, _ := r.state(path)
	return s.state
}

func (r *Runner) state(path string) (channelState, bool) {
	r.states.mu.Lock()
	defer r.states.mu.Unlock()
	s, ok := r.states.m[stateKey(path)]
	return s, ok
}

func (r *Runner) setState(path string, s channelState) {
	r.states.mu.Lock()
	defer r.states.mu.Unlock()
	r.states.m[stateKey(path)] = s
}

func stateKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
