package voxelworld

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/block"
	"voxelcore/internal/chunk"
	"voxelcore/internal/config"
	"voxelcore/internal/gpu"
	"voxelcore/internal/store"
)

// fakeBuffer/fakeTransferBuffer/fakeDevice stand in for the go-gl backend
// so these tests exercise the upload call sequence without an OpenGL
// context, mirroring how the teacher's own tests fake out device-backed
// collaborators.
type fakeBuffer struct{ size int }

func (b *fakeBuffer) Size() int { return b.size }

type fakeTransferBuffer struct {
	data []byte
}

func (t *fakeTransferBuffer) Map() ([]byte, error) { return t.data, nil }
func (t *fakeTransferBuffer) Unmap()               {}
func (t *fakeTransferBuffer) Size() int            { return len(t.data) }

type fakeCopyPass struct{}

func (fakeCopyPass) Upload(src gpu.TransferBuffer, n int, dst gpu.Buffer, dstOffset int) {}

type fakeCommandBuffer struct{}

func (fakeCommandBuffer) BeginCopyPass() gpu.CopyPass { return fakeCopyPass{} }
func (fakeCommandBuffer) EndCopyPass(gpu.CopyPass)    {}
func (fakeCommandBuffer) Submit()                     {}

type fakeDevice struct {
	indexCap int
}

func (d *fakeDevice) CreateBuffer(usage gpu.Usage, sizeBytes int) (gpu.Buffer, error) {
	return &fakeBuffer{size: sizeBytes}, nil
}
func (d *fakeDevice) CreateTransferBuffer(sizeBytes int) (gpu.TransferBuffer, error) {
	return &fakeTransferBuffer{data: make([]byte, sizeBytes)}, nil
}
func (d *fakeDevice) AcquireCommandBuffer() gpu.CommandBuffer { return fakeCommandBuffer{} }
func (d *fakeDevice) EnsureIndexCapacity(indexCount int) (gpu.Buffer, error) {
	if indexCount > d.indexCap {
		d.indexCap = indexCount
	}
	return &fakeBuffer{size: d.indexCap * 4}, nil
}
func (d *fakeDevice) Destroy() {}

type fakeCamera struct {
	pos, fwd mgl32.Vec3
	fov      float32
}

func (c fakeCamera) Position() mgl32.Vec3 { return c.pos }
func (c fakeCamera) Forward() mgl32.Vec3  { return c.fwd }
func (c fakeCamera) FOVRadians() float32  { return c.fov }

func testConfig() config.Config {
	return config.Config{
		CW:              4,
		CH:              8,
		N:               3,
		W:               2,
		Noise:           config.NoiseFlat,
		Seed:            1,
		DatabaseMaxJobs: 64,
		AtlasDim:        16,
	}
}

// pumpUntil drives Update at the center viewer position until cond is true
// or the timeout elapses, giving the background workers time to run.
func pumpUntil(t *testing.T, w *World, viewer mgl32.Vec3, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w.Update(viewer)
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// TestBootAndFirstFrame reproduces spec.md §8 scenario 1: after enough
// update ticks, the center chunk has generated blocks matching the FLAT
// variant's fixed layering.
func TestBootAndFirstFrame(t *testing.T) {
	cfg := testConfig()
	st, err := store.Open(":memory:", cfg.DatabaseMaxJobs)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	w, err := New(cfg, &fakeDevice{}, st)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	viewer := mgl32.Vec3{float32(cfg.CW), 0, float32(cfg.CW)}

	pumpUntil(t, w, viewer, func() bool {
		return w.GetBlock(cfg.CW, 4, cfg.CW) == block.Grass
	})

	if got := w.GetBlock(cfg.CW, 0, cfg.CW); got != block.Bedrock {
		t.Errorf("GetBlock(y=0) = %v, want Bedrock", got)
	}
	if got := w.GetBlock(cfg.CW, 1, cfg.CW); got != block.Dirt {
		t.Errorf("GetBlock(y=1) = %v, want Dirt", got)
	}
}

// TestSetBlockThenGetBlockReturnsNewValue covers the edit path: after
// SetBlock, a subsequent GetBlock on the same cell observes the write
// immediately (same in-memory chunk), and the store receives the PUT_BLOCK.
func TestSetBlockThenGetBlockReturnsNewValue(t *testing.T) {
	cfg := testConfig()
	st, err := store.Open(":memory:", cfg.DatabaseMaxJobs)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	w, err := New(cfg, &fakeDevice{}, st)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	viewer := mgl32.Vec3{float32(cfg.CW), 0, float32(cfg.CW)}
	pumpUntil(t, w, viewer, func() bool {
		return w.GetBlock(cfg.CW, 4, cfg.CW) == block.Grass
	})

	x, y, z := cfg.CW+1, 5, cfg.CW+1
	w.SetBlock(x, y, z, block.Stone)

	if got := w.GetBlock(x, y, z); got != block.Stone {
		t.Fatalf("GetBlock after SetBlock = %v, want Stone", got)
	}

	w.store.Commit()
	time.Sleep(50 * time.Millisecond)

	deltas, err := st.GetBlocks(x/cfg.CW, z/cfg.CW)
	if err != nil {
		t.Fatalf("GetBlocks: %v", err)
	}
	found := false
	for _, d := range deltas {
		if d.BX == x%cfg.CW && d.BY == y && d.BZ == z%cfg.CW && block.Kind(d.Block) == block.Stone {
			found = true
		}
	}
	if !found {
		t.Fatal("persisted edit not found in store after commit")
	}
}

// TestSetBlockOnBoundaryFlagsNeighborForRemesh reproduces spec.md §8's
// neighbor-remesh rule: editing a block on a chunk face boundary marks the
// bordering chunk set_voxels, not just the owner.
func TestSetBlockOnBoundaryFlagsNeighborForRemesh(t *testing.T) {
	cfg := testConfig()
	st, err := store.Open(":memory:", cfg.DatabaseMaxJobs)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	w, err := New(cfg, &fakeDevice{}, st)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	viewer := mgl32.Vec3{float32(cfg.CW), 0, float32(cfg.CW)}
	pumpUntil(t, w, viewer, func() bool {
		return w.GetBlock(cfg.CW, 4, cfg.CW) == block.Grass
	})

	// x = cfg.CW is local x=0 of the center chunk: a West-face boundary
	// cell, so the West neighbor (slot (0,1)) must be flagged too.
	w.SetBlock(cfg.CW, 5, cfg.CW+1, block.Stone)

	westNeighbor := w.grid.At(0, 1)
	if !westNeighbor.Flags.Has(chunk.FlagSetVoxels) {
		t.Fatal("west neighbor of an edited boundary cell should have set_voxels flagged")
	}
}

// TestUpdateNeverMovesOriginWhileWorkerBusy reproduces spec.md §8's slide
// deferral property.
func TestUpdateNeverMovesOriginWhileWorkerBusy(t *testing.T) {
	cfg := testConfig()
	st, err := store.Open(":memory:", cfg.DatabaseMaxJobs)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	w, err := New(cfg, &fakeDevice{}, st)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	viewer := mgl32.Vec3{float32(cfg.CW), 0, float32(cfg.CW)}
	w.Update(viewer) // dispatches SET_BLOCKS jobs; workers still running.

	originX, originZ := w.grid.WorldX, w.grid.WorldZ
	farViewer := mgl32.Vec3{float32(cfg.CW) * 10, 0, float32(cfg.CW) * 10}

	if len(w.inFlight) == 0 {
		t.Skip("jobs completed before the assertion window; timing-dependent property not exercised")
	}
	w.Update(farViewer)
	if w.grid.WorldX != originX || w.grid.WorldZ != originZ {
		t.Fatal("grid origin moved while a worker was still busy")
	}
}
