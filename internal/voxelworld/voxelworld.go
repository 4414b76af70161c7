// Package voxelworld implements the world façade (C8): it composes the
// sliding grid, worker pool, persistence store and terrain generator into
// the single object a host game drives once per frame via Update and
// Render, and through which it reads/writes individual blocks.
//
// This mirrors the teacher's internal/world.World, which owns exactly this
// set of collaborators (a chunk grid, a worker pool, a generator) behind
// one façade type rather than package-level globals — spec.md §9's "Global
// mutable state" design note calls for the same shape.
package voxelworld

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/block"
	"voxelcore/internal/chunk"
	"voxelcore/internal/config"
	"voxelcore/internal/geom"
	"voxelcore/internal/gpu"
	"voxelcore/internal/grid"
	"voxelcore/internal/logging"
	"voxelcore/internal/store"
	"voxelcore/internal/terrain"
	"voxelcore/internal/workerpool"

	"go.uber.org/zap"
)

// Camera is the external collaborator Render needs: a position, a forward
// vector and a field of view, supplied by the host's input/camera code.
type Camera interface {
	Position() mgl32.Vec3
	Forward() mgl32.Vec3
	FOVRadians() float32
}

// storeAdapter narrows *store.Store to the workerpool.StoreReader contract,
// translating store.BlockDelta to workerpool.BlockDelta at the boundary so
// workerpool need not import store (see workerpool.BlockDelta's doc).
type storeAdapter struct{ s *store.Store }

func (a storeAdapter) GetBlocks(cx, cz int) ([]workerpool.BlockDelta, error) {
	deltas, err := a.s.GetBlocks(cx, cz)
	if err != nil {
		return nil, err
	}
	out := make([]workerpool.BlockDelta, len(deltas))
	for i, d := range deltas {
		out[i] = workerpool.BlockDelta{BX: d.BX, BY: d.BY, BZ: d.BZ, Block: d.Block}
	}
	return out, nil
}

// World is the top-level streaming core: the sliding grid of resident
// chunks, the worker pool that fills and meshes them, the persistence
// store overlaying player edits, and the precomputed dispatch/render order.
type World struct {
	cfg   config.Config
	grid  *grid.Grid
	pool  *workerpool.Pool
	store *store.Store
	dev   gpu.Device

	sortIndex []geom.Cell

	// inFlight tracks, per slot, whether a job is currently dispatched —
	// the dispatcher invariant of spec.md §4.6/§5 ("at most one job per
	// chunk in flight"), since the worker inbox alone doesn't tell the
	// dispatcher which slot a busy worker is holding.
	inFlight map[[2]int]bool

	// busy tracks, per worker index, whether that worker currently has a
	// job outstanding — freed when its Result arrives, per Result's
	// WorkerIndex field.
	busy []bool

	shouldMove    bool
	desiredWorldX int
	desiredWorldZ int
}

// New constructs a World and its owned collaborators: an N×N grid sized
// from cfg, a worker pool of cfg.W goroutines, and the terrain generator
// named by cfg.Noise. dev and st are supplied by the host, which owns
// their lifetimes beyond a single World (st may be shared across World
// instances across a process restart that reuses the same save file).
func New(cfg config.Config, dev gpu.Device, st *store.Store) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := grid.New(cfg.N, cfg.CW, cfg.CH, 0, 0)
	filler := terrain.New(terrainVariant(cfg.Noise), cfg.CW, cfg.CH, cfg.Seed)

	w := &World{
		cfg:       cfg,
		grid:      g,
		store:     st,
		dev:       dev,
		sortIndex: geom.BuildSortIndex(cfg.N),
		inFlight:  make(map[[2]int]bool),
		busy:      make([]bool, cfg.W),
	}

	w.pool = workerpool.New(workerpool.Config{
		W:       cfg.W,
		CW:      cfg.CW,
		CH:      cfg.CH,
		Grid:    g,
		Filler:  filler,
		Reader:  storeAdapter{s: st},
		Dev:     dev,
		ChunkAt: g.At,
	})

	return w, nil
}

func terrainVariant(n config.NoiseVariant) terrain.Variant {
	switch n {
	case config.NoiseCube:
		return terrain.VariantCube
	case config.NoiseFlat:
		return terrain.VariantFlat
	default:
		return terrain.VariantFBM
	}
}

// Close sends QUIT to every worker and to the persistence thread, per
// spec.md §5's cancellation model.
func (w *World) Close() {
	w.pool.Close()
	if w.store != nil {
		w.store.Close()
	}
}

// Update implements spec.md §4.8's per-frame algorithm: compute the
// desired grid origin from the viewer position, slide if it moved (or
// defer the slide if a worker is still busy), otherwise dispatch to idle
// workers in near-to-far order under the three-tier priority.
func (w *World) Update(viewer mgl32.Vec3) {
	w.drainResults()

	half := w.cfg.N / 2
	wx := int(math.Floor(float64(viewer.X())/float64(w.cfg.CW))) - half
	wz := int(math.Floor(float64(viewer.Z())/float64(w.cfg.CW))) - half

	if wx != w.grid.WorldX || wz != w.grid.WorldZ {
		w.shouldMove = true
		w.desiredWorldX, w.desiredWorldZ = wx, wz
	}

	if w.shouldMove {
		if len(w.inFlight) > 0 {
			return
		}
		w.grid.Slide(w.desiredWorldX, w.desiredWorldZ)
		w.shouldMove = false
		// A slide invalidates every in-flight bookkeeping entry: slots now
		// hold different chunks than the dispatcher last reasoned about.
		w.inFlight = make(map[[2]int]bool)
		return
	}

	w.dispatchRound()
}

func (w *World) drainResults() {
	for {
		select {
		case res := <-w.pool.Results():
			delete(w.inFlight, [2]int{res.Job.I, res.Job.J})
			w.busy[res.WorkerIndex] = false
			if res.Err != nil {
				logging.L().Warn("voxelworld: job failed", zap.Int("i", res.Job.I), zap.Int("j", res.Job.J), zap.Error(res.Err))
			}
		default:
			return
		}
	}
}

// dispatchRound walks the sort order three times — once per priority tier
// — handing jobs to idle workers until none remain, per spec.md §4.8 step
// 3. A chunk already in flight is never redispatched.
func (w *World) dispatchRound() {
	if w.idleWorkerCount() == 0 {
		return
	}

	w.dispatchTier(func(c *chunk.Chunk) bool { return c.Flags.Has(chunk.FlagSetBlocks) }, workerpool.JobSetBlocks)
	w.dispatchTier(func(c *chunk.Chunk) bool {
		return !w.isBorder(c) && c.Flags.Has(chunk.FlagSetVoxels) && w.neighborhoodHasBlocks(c)
	}, workerpool.JobSetVoxels)
	w.dispatchTier(func(c *chunk.Chunk) bool {
		return !w.isBorder(c) && c.Flags.Has(chunk.FlagSetLights) && w.neighborhoodHasBlocks(c)
	}, workerpool.JobSetLights)
}

func (w *World) idleWorkerCount() int {
	n := 0
	for _, b := range w.busy {
		if !b {
			n++
		}
	}
	return n
}

func (w *World) dispatchTier(wants func(*chunk.Chunk) bool, kind workerpool.JobKind) {
	for _, cell := range w.sortIndex {
		if w.idleWorkerCount() == 0 {
			return
		}
		if w.inFlight[[2]int{cell.I, cell.J}] {
			continue
		}
		c := w.grid.At(cell.I, cell.J)
		if !wants(c) {
			continue
		}
		idx := w.nextIdleWorker()
		if idx < 0 {
			return
		}
		if !workerpool.Dispatch(w.pool.Workers[idx], workerpool.Job{Kind: kind, I: cell.I, J: cell.J}) {
			// Should not happen: busy is tracked in lockstep with each
			// worker's inbox occupancy.
			logging.L().Error("voxelworld: idle-tracked worker rejected dispatch", zap.Int("worker", idx))
			continue
		}
		w.busy[idx] = true
		w.inFlight[[2]int{cell.I, cell.J}] = true
		clearDispatchFlag(c, kind)
	}
}

func (w *World) nextIdleWorker() int {
	for i, b := range w.busy {
		if !b {
			return i
		}
	}
	return -1
}

func clearDispatchFlag(c *chunk.Chunk, kind workerpool.JobKind) {
	// The set_* flag is cleared before dispatch so the dispatcher never
	// re-picks a job already in flight, per spec.md §5's ordering
	// guarantee; runSetBlocks/Voxels/Lights clear it again redundantly on
	// completion, which is harmless (Clear is idempotent).
	switch kind {
	case workerpool.JobSetBlocks:
		c.Flags.Clear(chunk.FlagSetBlocks)
	case workerpool.JobSetVoxels:
		c.Flags.Clear(chunk.FlagSetVoxels)
	case workerpool.JobSetLights:
		c.Flags.Clear(chunk.FlagSetLights)
	}
}

func (w *World) isBorder(c *chunk.Chunk) bool {
	i, j := w.slotOf(c)
	return w.grid.Bordering(i, j)
}

func (w *World) slotOf(c *chunk.Chunk) (int, int) {
	i := c.X/w.cfg.CW - w.grid.WorldX
	j := c.Z/w.cfg.CW - w.grid.WorldZ
	return i, j
}

func (w *World) neighborhoodHasBlocks(c *chunk.Chunk) bool {
	i, j := w.slotOf(c)
	for di := -1; di <= 1; di++ {
		for dj := -1; dj <= 1; dj++ {
			ni, nj := i+di, j+dj
			if !w.grid.In(ni, nj) {
				continue
			}
			if !w.grid.At(ni, nj).Flags.Has(chunk.FlagHasBlocks) {
				return false
			}
		}
	}
	return true
}

// Render walks the sort order, skipping border chunks and chunks without
// has_voxels, frustum-tests each remaining chunk's AABB, and issues an
// indexed draw for every mesh class with faces.
func (w *World) Render(cam Camera, pass gpu.RenderPass) {
	camPos := cam.Position()
	camFwd := cam.Forward()
	fov := cam.FOVRadians()

	for _, cell := range w.sortIndex {
		if w.grid.Bordering(cell.I, cell.J) {
			continue
		}
		c := w.grid.At(cell.I, cell.J)
		if !c.Flags.Has(chunk.FlagHasVoxels) {
			continue
		}

		aabbMin := mgl32.Vec3{float32(c.X), 0, float32(c.Z)}
		aabbMax := mgl32.Vec3{float32(c.X + c.CW), float32(c.CH), float32(c.Z + c.CW)}
		if !geom.FrustumTest(camPos, camFwd, fov, aabbMin, aabbMax) {
			continue
		}

		pass.PushChunkOrigin(float32(c.X), 0, float32(c.Z))
		pass.PushLightCount(len(c.Lights))
		if c.LightBuffer != nil {
			pass.BindLightBuffer(c.LightBuffer)
		}

		for class := chunk.MeshOpaque; class <= chunk.MeshSprite; class++ {
			faces := c.FaceCounts[class]
			if faces == 0 {
				continue
			}
			buf := c.VertexBuffers[class]
			if buf == nil {
				continue
			}
			indexCount := faces * 6
			idxBuf, err := w.dev.EnsureIndexCapacity(indexCount)
			if err != nil {
				logging.L().Error("voxelworld: index buffer growth failed, skipping chunk draw", zap.Error(err))
				continue
			}
			pass.BindVertexBuffer(buf)
			pass.BindIndexBuffer(idxBuf)
			pass.DrawIndexed(indexCount)
		}
	}
}

// GetBlock implements spec.md §4.8's get_block guards: out-of-range y and
// out-of-window chunk indices return EMPTY, as does a chunk that hasn't
// finished SET_BLOCKS or is mid-remesh.
func (w *World) GetBlock(x, y, z int) block.Kind {
	if y < 0 || y >= w.cfg.CH {
		return block.Empty
	}
	ci := floorDiv(x, w.cfg.CW) - w.grid.WorldX
	cj := floorDiv(z, w.cfg.CW) - w.grid.WorldZ
	if !w.grid.In(ci, cj) {
		return block.Empty
	}
	c := w.grid.At(ci, cj)
	if !c.Flags.Has(chunk.FlagHasBlocks) || c.Flags.Has(chunk.FlagSetVoxels) {
		return block.Empty
	}
	return c.At(x-c.X, y, z-c.Z)
}

// SetBlock implements spec.md §4.8's set_block: same guards as GetBlock,
// then writes the block, flips set_voxels on the owner and any face-
// boundary neighbor, flips set_lights on the 3×3 neighborhood if a light
// source appeared or disappeared, and enqueues persistence.
func (w *World) SetBlock(x, y, z int, k block.Kind) {
	if y < 0 || y >= w.cfg.CH {
		return
	}
	ci := floorDiv(x, w.cfg.CW) - w.grid.WorldX
	cj := floorDiv(z, w.cfg.CW) - w.grid.WorldZ
	if !w.grid.In(ci, cj) {
		return
	}
	c := w.grid.At(ci, cj)
	if !c.Flags.Has(chunk.FlagHasBlocks) || c.Flags.Has(chunk.FlagSetVoxels) {
		return
	}

	lx, lz := x-c.X, z-c.Z
	old := c.At(lx, y, lz)
	c.SetLocal(lx, y, lz, k)
	c.Flags.Set(chunk.FlagSetVoxels)

	if lx == 0 {
		w.flagNeighborVoxels(ci, cj, -1, 0)
	} else if lx == c.CW-1 {
		w.flagNeighborVoxels(ci, cj, 1, 0)
	}
	if lz == 0 {
		w.flagNeighborVoxels(ci, cj, 0, -1)
	} else if lz == c.CW-1 {
		w.flagNeighborVoxels(ci, cj, 0, 1)
	}

	if block.IsLight(old) != block.IsLight(k) {
		for di := -1; di <= 1; di++ {
			for dj := -1; dj <= 1; dj++ {
				ni, nj := ci+di, cj+dj
				if w.grid.In(ni, nj) {
					w.grid.At(ni, nj).Flags.Set(chunk.FlagSetLights)
				}
			}
		}
	}

	if w.store != nil {
		cx, cz := c.X/c.CW, c.Z/c.CW
		if !w.store.PutBlock(store.BlockDelta{CX: cx, CZ: cz, BX: lx, BY: y, BZ: lz, Block: int(k)}) {
			logging.L().Warn("voxelworld: persistence queue full, edit will retry on next SetBlock of this cell")
		}
	}
}

func (w *World) flagNeighborVoxels(ci, cj, di, dj int) {
	if n := w.grid.Neighbor(ci, cj, di, dj); n != nil {
		n.Flags.Set(chunk.FlagSetVoxels)
	}
}

// floorDiv is integer division rounding toward negative infinity, unlike
// Go's built-in truncating division, needed for world coordinates that can
// be negative (spec.md §4.8's ⌊x/CW⌋).
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
