// Package workerpool implements the worker pool (C6): W goroutines, each
// with a single-slot job inbox, executing generate/mesh/lighting jobs
// against chunks borrowed from the grid under the dispatcher's
// one-job-per-chunk invariant.
//
// spec.md §9's design note is explicit that a reimplementation in a
// language with channels should use them directly in place of the
// mutex+condvar single-slot inbox; this package follows that note rather
// than the teacher's internal/meshing/pool.go shape, which is grounded on
// instead for its goroutine-per-worker lifecycle and QUIT handling.
package workerpool

import (
	"unsafe"

	"voxelcore/internal/block"
	"voxelcore/internal/chunk"
	"voxelcore/internal/gpu"
	"voxelcore/internal/logging"
	"voxelcore/internal/terrain"
	"voxelcore/internal/voxmesh"

	"go.uber.org/zap"
)

// JobKind tags a unit of work dispatched to a worker.
type JobKind int

const (
	// jobNone is the zero value, used only for idle bookkeeping; never sent.
	jobNone JobKind = iota
	JobQuit
	JobSetBlocks
	JobSetVoxels
	JobSetLights
)

// Job addresses a grid slot and the work to perform on it.
type Job struct {
	Kind JobKind
	I, J int
}

// NeighborLookup resolves the chunk at slot offset (di,dj) from (i,j),
// diagonals included, or nil if outside the grid — the same contract
// grid.Grid.Neighbor exposes, kept as an interface here so workerpool
// doesn't import grid (grid already depends on chunk; this avoids a cycle
// and keeps the pool testable against a fake grid).
type NeighborLookup interface {
	Neighbor(i, j, di, dj int) *chunk.Chunk
}

// StoreReader is the subset of store.Store a SET_BLOCKS job needs to
// overlay persisted edits onto freshly generated terrain.
type StoreReader interface {
	GetBlocks(cx, cz int) (deltas []BlockDelta, err error)
}

// BlockDelta mirrors store.BlockDelta's shape without importing store,
// for the same reason NeighborLookup avoids importing grid.
type BlockDelta struct {
	BX, BY, BZ int
	Block      int
}

// Worker owns one capacity-1 inbox channel and its own CPU staging
// buffers, so concurrently running jobs on different workers never
// contend on shared memory (spec.md §4.6's closing sentence).
type Worker struct {
	// Index is this worker's position in Pool.Workers, echoed back on every
	// Result so the dispatcher can track idle/busy state per worker
	// without probing occupancy via Dispatch's non-blocking send.
	Index int

	inbox chan Job

	stagingOpaque      []voxmesh.PackedVertex
	stagingTransparent []voxmesh.PackedVertex
	stagingSprite      []voxmesh.PackedVertex
	stagingLights      []chunk.Light
}

func newWorker(index int) *Worker {
	return &Worker{Index: index, inbox: make(chan Job, 1)}
}

// Pool owns W workers and the shared dependencies job bodies need: the
// grid (for neighbor lookups), the terrain generator, and the persistence
// store.
type Pool struct {
	Workers []*Worker

	grid    NeighborLookup
	filler  terrain.ColumnFiller
	reader  StoreReader
	dev     gpu.Device
	cw, ch  int
	atEach  func(i, j int) *chunk.Chunk
	results chan Result
}

// Result reports a completed job back to the dispatcher so it can clear
// the in-flight bookkeeping for (I, J), free WorkerIndex for redispatch,
// and react to newly ready chunks.
type Result struct {
	Job         Job
	WorkerIndex int
	Err         error
}

// Config bundles the fixed dependencies every worker shares.
type Config struct {
	W       int
	CW, CH  int
	Grid    NeighborLookup
	Filler  terrain.ColumnFiller
	Reader  StoreReader
	Dev     gpu.Device
	ChunkAt func(i, j int) *chunk.Chunk
}

// New starts Config.W worker goroutines, each blocking on <-inbox until a
// job or QUIT arrives — no busy-waiting, per spec.md §5.
func New(cfg Config) *Pool {
	p := &Pool{
		grid:    cfg.Grid,
		filler:  cfg.Filler,
		reader:  cfg.Reader,
		dev:     cfg.Dev,
		cw:      cfg.CW,
		ch:      cfg.CH,
		atEach:  cfg.ChunkAt,
		results: make(chan Result, cfg.W*2),
	}
	p.Workers = make([]*Worker, cfg.W)
	for i := range p.Workers {
		w := newWorker(i)
		p.Workers[i] = w
		go p.run(w)
	}
	return p
}

// Results is the channel the dispatcher drains once per frame to learn
// which jobs finished.
func (p *Pool) Results() <-chan Result { return p.results }

// Dispatch attempts a non-blocking send of j to w's inbox. It reports
// false if the inbox is occupied — a programmer error per spec.md §4.6
// ("dispatch asserts the inbox is empty"), since the dispatcher is
// supposed to only ever hand a worker a new job once it is idle.
func Dispatch(w *Worker, j Job) bool {
	select {
	case w.inbox <- j:
		return true
	default:
		logging.L().Error("workerpool: dispatch to non-idle worker", zap.Int("i", j.I), zap.Int("j", j.J))
		return false
	}
}

// Close sends JobQuit to every worker, blocking until each inbox accepts
// it. It does not wait for the worker goroutines to finish their current
// job or exit.
func (p *Pool) Close() {
	for _, w := range p.Workers {
		w.inbox <- Job{Kind: JobQuit}
	}
}

func (p *Pool) run(w *Worker) {
	for job := range w.inbox {
		switch job.Kind {
		case JobQuit:
			return
		case JobSetBlocks:
			err := p.runSetBlocks(w, job.I, job.J)
			p.results <- Result{Job: job, WorkerIndex: w.Index, Err: err}
		case JobSetVoxels:
			err := p.runSetVoxels(w, job.I, job.J)
			p.results <- Result{Job: job, WorkerIndex: w.Index, Err: err}
		case JobSetLights:
			err := p.runSetLights(w, job.I, job.J)
			p.results <- Result{Job: job, WorkerIndex: w.Index, Err: err}
		}
	}
}

// runSetBlocks generates terrain into the chunk's block array, then
// overlays any persisted deltas for (cx, cz), per spec.md §4.6.
func (p *Pool) runSetBlocks(w *Worker, i, j int) error {
	c := p.atEach(i, j)
	cx, cz := c.X/p.cw, c.Z/p.cw

	clear(c.Blocks)
	p.filler.Generate(cx, cz, func(x, y, z int, k block.Kind) {
		lx, ly, lz := x-c.X, y, z-c.Z
		if c.InBounds(lx, ly, lz) {
			c.Blocks[localIndex(c, lx, ly, lz)] = k
		}
	})

	if p.reader != nil {
		deltas, err := p.reader.GetBlocks(cx, cz)
		if err != nil {
			logging.L().Warn("workerpool: GetBlocks overlay failed, using generated terrain only",
				zap.Int("cx", cx), zap.Int("cz", cz), zap.Error(err))
		}
		for _, d := range deltas {
			if c.InBounds(d.BX, d.BY, d.BZ) {
				c.Blocks[localIndex(c, d.BX, d.BY, d.BZ)] = block.Kind(d.Block)
			}
		}
	}

	c.Tag.Generation.Add(1)
	c.Flags.Set(chunk.FlagHasBlocks | chunk.FlagSetVoxels)
	c.Flags.Clear(chunk.FlagSetBlocks)
	return nil
}

func localIndex(c *chunk.Chunk, x, y, z int) int {
	return (x*c.CH+y)*c.CW + z
}

// runSetVoxels builds the chunk's mesh from the chunk and its four
// face-adjacent neighbors into this worker's staging buffers, per spec.md
// §4.6; diagonal neighbors are not read. Preconditions (every chunk of the
// 3x3 window has_blocks) are enforced by the dispatcher, not re-checked
// here.
func (p *Pool) runSetVoxels(w *Worker, i, j int) error {
	c := p.atEach(i, j)

	var neighbors voxmesh.Neighbors
	for _, dir := range block.HorizontalDirections {
		di, dj := dirOffset(dir)
		if n := p.grid.Neighbor(i, j, di, dj); n != nil {
			neighbors[dir] = n
		}
	}

	built := voxmesh.BuildChunkMesh(p.cw, p.ch, c, neighbors)
	w.stagingOpaque = built.Opaque
	w.stagingTransparent = built.Transparent
	w.stagingSprite = built.Sprite

	maxFaces := len(built.Opaque) / 4
	if n := len(built.Transparent) / 4; n > maxFaces {
		maxFaces = n
	}
	if n := len(built.Sprite) / 4; n > maxFaces {
		maxFaces = n
	}
	if p.dev != nil && maxFaces > 0 {
		if _, err := p.dev.EnsureIndexCapacity(maxFaces * 6); err != nil {
			logging.L().Error("workerpool: shared index buffer growth failed", zap.Error(err))
		}
	}

	classes := [3]struct {
		class chunk.MeshClass
		verts []voxmesh.PackedVertex
	}{
		{chunk.MeshOpaque, built.Opaque},
		{chunk.MeshTransparent, built.Transparent},
		{chunk.MeshSprite, built.Sprite},
	}
	for _, cl := range classes {
		c.FaceCounts[cl.class] = len(cl.verts) / 4
		if p.dev == nil {
			continue
		}
		buf, err := uploadVertices(p.dev, cl.verts)
		if err != nil {
			logging.L().Warn("workerpool: vertex upload failed, mesh class left stale",
				zap.Int("i", i), zap.Int("j", j), zap.Int("class", int(cl.class)), zap.Error(err))
			continue
		}
		c.VertexBuffers[cl.class] = buf
	}

	c.Flags.Set(chunk.FlagHasVoxels)
	c.Flags.Clear(chunk.FlagSetVoxels)
	return nil
}

// uploadVertices stages verts through a transfer buffer and copies it into
// a freshly sized device buffer, the map/write/unmap-then-copy-pass
// sequence spec.md §6 describes for chunk mesh uploads. An empty verts
// slice still returns a zero-size buffer so the caller has a valid handle.
func uploadVertices(dev gpu.Device, verts []voxmesh.PackedVertex) (gpu.Buffer, error) {
	sizeBytes := len(verts) * 4 // one uint32 word per vertex
	if sizeBytes == 0 {
		return dev.CreateBuffer(gpu.UsageVertex, 0)
	}

	dst, err := dev.CreateBuffer(gpu.UsageVertex, sizeBytes)
	if err != nil {
		return nil, err
	}
	xfer, err := dev.CreateTransferBuffer(sizeBytes)
	if err != nil {
		return nil, err
	}
	mapped, err := xfer.Map()
	if err != nil {
		return nil, err
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(&verts[0])), sizeBytes)
	copy(mapped, src)
	xfer.Unmap()

	cmd := dev.AcquireCommandBuffer()
	pass := cmd.BeginCopyPass()
	pass.Upload(xfer, sizeBytes, dst, 0)
	cmd.EndCopyPass(pass)
	cmd.Submit()

	return dst, nil
}

// runSetLights propagates light contributions from block light sources in
// the 3x3 neighborhood into the chunk's light list, per spec.md §4.6.
func (p *Pool) runSetLights(w *Worker, i, j int) error {
	c := p.atEach(i, j)

	w.stagingLights = w.stagingLights[:0]
	scanSources := func(src *chunk.Chunk) {
		if src == nil {
			return
		}
		for x := 0; x < src.CW; x++ {
			for z := 0; z < src.CW; z++ {
				for y := 0; y < src.CH; y++ {
					if block.IsLight(src.At(x, y, z)) {
						w.stagingLights = append(w.stagingLights, chunk.Light{
							X: int32(src.X + x), Y: int32(y), Z: int32(src.Z + z), Level: 15,
						})
					}
				}
			}
		}
	}
	scanSources(c)
	for di := -1; di <= 1; di++ {
		for dj := -1; dj <= 1; dj++ {
			if di != 0 || dj != 0 {
				scanSources(p.grid.Neighbor(i, j, di, dj))
			}
		}
	}
	c.Lights = append(c.Lights[:0], w.stagingLights...)

	if p.dev != nil {
		buf, err := uploadLights(p.dev, c.Lights)
		if err != nil {
			logging.L().Warn("workerpool: light buffer upload failed, render will use stale buffer",
				zap.Int("i", i), zap.Int("j", j), zap.Error(err))
		} else {
			c.LightBuffer = buf
		}
	}

	c.Flags.Set(chunk.FlagHasLights)
	c.Flags.Clear(chunk.FlagSetLights)
	return nil
}

// uploadLights stages a chunk's light list into a GPU storage buffer the
// render pass binds for shading, mirroring uploadVertices' transfer-then-
// copy sequence.
func uploadLights(dev gpu.Device, lights []chunk.Light) (gpu.Buffer, error) {
	sizeBytes := len(lights) * int(unsafe.Sizeof(chunk.Light{}))
	if sizeBytes == 0 {
		return dev.CreateBuffer(gpu.UsageStorage, 0)
	}

	dst, err := dev.CreateBuffer(gpu.UsageStorage, sizeBytes)
	if err != nil {
		return nil, err
	}
	xfer, err := dev.CreateTransferBuffer(sizeBytes)
	if err != nil {
		return nil, err
	}
	mapped, err := xfer.Map()
	if err != nil {
		return nil, err
	}
	copy(mapped, unsafe.Slice((*byte)(unsafe.Pointer(&lights[0])), sizeBytes))
	xfer.Unmap()

	cmd := dev.AcquireCommandBuffer()
	pass := cmd.BeginCopyPass()
	pass.Upload(xfer, sizeBytes, dst, 0)
	cmd.EndCopyPass(pass)
	cmd.Submit()

	return dst, nil
}

func dirOffset(dir block.Direction) (di, dj int) {
	switch dir {
	case block.North:
		return 0, 1
	case block.South:
		return 0, -1
	case block.East:
		return 1, 0
	default: // block.West
		return -1, 0
	}
}
