package keywell

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Stage tags how far a [Result] got through the pipeline.
type Stage int

const (
	// StagePreview is a coarse mesh of the right half, delivered early
	// so an interactive caller has something to draw while the full
	// resolution run continues.
	StagePreview Stage = iota

	// StageFinal carries the full-resolution meshes of all parts.
	StageFinal
)

// Result is one delivery from the engine. Err is set on rejected or
// failed parametrizations; every other field is then zero. A superseded
// parametrization produces no Result at all.
type Result struct {
	Stage  Stage
	Config Config
	Layout *Layout
	Case   *CaseSolids
	Wiring *Wiring

	// RightHalf is coarse at StagePreview and full resolution at
	// StageFinal. LeftHalf and BottomPlate are only set at StageFinal.
	RightHalf   *Mesh
	LeftHalf    *Mesh
	BottomPlate *Mesh

	Err error
}

// EngineOption adjusts engine construction.
type EngineOption func(*engineConfig)

type engineConfig struct {
	workers      int
	previewScale float64
	buffer       int
}

// WithWorkers sets the number of sampling workers. Zero or negative
// uses GOMAXPROCS.
func WithWorkers(n int) EngineOption {
	return func(c *engineConfig) { c.workers = n }
}

// WithPreviewScale sets the factor by which the preview coarsens the
// configured resolution. The default is 4; a scale of 1 disables the
// separate preview pass.
func WithPreviewScale(scale float64) EngineOption {
	return func(c *engineConfig) {
		if scale >= 1 {
			c.previewScale = scale
		}
	}
}

// Engine runs the generation pipeline for an interactive caller. Each
// [Engine.Submit] starts a run over the whole pipeline: validate, solve
// the layout, build the case solids, mesh. Submitting again while a run
// is in flight supersedes it: the old run is cancelled and delivers
// nothing. Supersession is the normal editing flow, not an error.
//
// Results arrive on [Engine.Results] in submission order. The engine
// keeps the outputs of the last successful parametrization and replays
// them instantly when the same config is submitted again.
type Engine struct {
	mesher       *Mesher
	previewScale float64
	results      chan Result

	// generation orders submissions; only the goroutine owning the
	// newest generation may deliver.
	generation atomic.Uint64

	memo atomic.Pointer[memoEntry]

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// memoEntry is the retained output of the last successful run.
type memoEntry struct {
	cfg    Config
	layout *Layout
	solids *CaseSolids
	wiring *Wiring
	right  *Mesh
	left   *Mesh
	plate  *Mesh
}

// NewEngine creates an engine. Close it when done.
func NewEngine(opts ...EngineOption) *Engine {
	cfg := engineConfig{previewScale: 4, buffer: 8}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		mesher:       NewMesher(cfg.workers),
		previewScale: cfg.previewScale,
		results:      make(chan Result, cfg.buffer),
	}
}

// Results returns the delivery channel. It is closed by [Engine.Close]
// after the last in-flight run winds down.
func (e *Engine) Results() <-chan Result {
	return e.results
}

// Submit hands a new parametrization to the engine and returns
// immediately. Any in-flight run is superseded. Submit after Close is a
// no-op.
func (e *Engine) Submit(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	gen := e.generation.Add(1)
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	e.wg.Add(1)
	go e.run(ctx, gen, cfg)
}

// Close supersedes any in-flight run, waits for it to wind down and
// closes the results channel. Close is safe to call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()

	e.wg.Wait()
	e.mesher.Close()
	close(e.results)
}

func (e *Engine) run(ctx context.Context, gen uint64, cfg Config) {
	defer e.wg.Done()

	if m := e.memo.Load(); m != nil && m.cfg.Equal(cfg) {
		Logger().Debug("replaying memoized parametrization", "generation", gen)
		e.deliver(ctx, gen, Result{
			Stage:       StageFinal,
			Config:      cfg,
			Layout:      m.layout,
			Case:        m.solids,
			Wiring:      m.wiring,
			RightHalf:   m.right,
			LeftHalf:    m.left,
			BottomPlate: m.plate,
		})
		return
	}

	layout, err := SolveLayout(cfg)
	if err != nil {
		e.deliver(ctx, gen, Result{Config: cfg, Err: err})
		return
	}
	solids, err := BuildCase(cfg, layout)
	if err != nil {
		e.deliver(ctx, gen, Result{Config: cfg, Err: err})
		return
	}
	wiring, err := DeriveWiring(cfg, layout)
	if err != nil {
		e.deliver(ctx, gen, Result{Config: cfg, Err: err})
		return
	}

	resolution := cfg.Preview.Resolution
	if e.previewScale > 1 {
		coarse, err := e.mesher.Mesh(ctx, solids.RightHalf, resolution*e.previewScale)
		if superseded(err) {
			return
		}
		if err != nil {
			e.deliver(ctx, gen, Result{Config: cfg, Err: err})
			return
		}
		if !e.deliver(ctx, gen, Result{
			Stage:     StagePreview,
			Config:    cfg,
			Layout:    layout,
			Case:      solids,
			Wiring:    wiring,
			RightHalf: coarse,
		}) {
			return
		}
	}

	right, err := e.mesher.Mesh(ctx, solids.RightHalf, resolution)
	if err == nil {
		var left, plate *Mesh
		left, err = e.mesher.Mesh(ctx, solids.LeftHalf, resolution)
		if err == nil {
			plate, err = e.mesher.Mesh(ctx, solids.BottomPlate, resolution)
		}
		if err == nil {
			e.memo.Store(&memoEntry{
				cfg: cfg, layout: layout, solids: solids, wiring: wiring,
				right: right, left: left, plate: plate,
			})
			e.deliver(ctx, gen, Result{
				Stage:       StageFinal,
				Config:      cfg,
				Layout:      layout,
				Case:        solids,
				Wiring:      wiring,
				RightHalf:   right,
				LeftHalf:    left,
				BottomPlate: plate,
			})
			return
		}
	}
	if superseded(err) {
		return
	}
	e.deliver(ctx, gen, Result{Config: cfg, Err: err})
}

// deliver sends r unless the run has been superseded. It reports
// whether the run may keep going.
func (e *Engine) deliver(ctx context.Context, gen uint64, r Result) bool {
	if e.generation.Load() != gen {
		return false
	}
	select {
	case e.results <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

func superseded(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
