package chunk

import (
	"testing"

	"voxelcore/internal/block"
)

func TestNewChunkStartsWithSetBlocksOnly(t *testing.T) {
	c := New(1, 4, 8, 0, 0)
	if !c.Flags.Has(FlagSetBlocks) {
		t.Error("new chunk must have FlagSetBlocks set")
	}
	if c.Flags.Has(FlagHasBlocks) || c.Flags.Has(FlagHasVoxels) {
		t.Error("new chunk must not claim has_blocks/has_voxels")
	}
}

func TestFlagsSetClearHasRoundTrip(t *testing.T) {
	var f Flags
	f.Set(FlagSetBlocks)
	f.Set(FlagHasLights)
	if !f.Has(FlagSetBlocks) || !f.Has(FlagHasLights) {
		t.Fatal("expected both flags set")
	}
	f.Clear(FlagSetBlocks)
	if f.Has(FlagSetBlocks) {
		t.Error("FlagSetBlocks should be cleared")
	}
	if !f.Has(FlagHasLights) {
		t.Error("clearing one flag must not affect another")
	}
}

func TestResetLeavesOnlySetBlocks(t *testing.T) {
	var f Flags
	f.Set(FlagHasBlocks)
	f.Set(FlagHasVoxels)
	f.Reset()
	if !f.Has(FlagSetBlocks) {
		t.Error("Reset must set FlagSetBlocks")
	}
	if f.Has(FlagHasBlocks) || f.Has(FlagHasVoxels) {
		t.Error("Reset must clear every other flag")
	}
}

func TestAtOutOfBoundsIsEmpty(t *testing.T) {
	c := New(1, 4, 8, 0, 0)
	if got := c.At(-1, 0, 0); got != block.Empty {
		t.Errorf("At(-1,0,0) = %v, want Empty", got)
	}
	if got := c.At(0, 8, 0); got != block.Empty {
		t.Errorf("At(0,CH,0) = %v, want Empty", got)
	}
}

func TestSetLocalBumpsGeneration(t *testing.T) {
	c := New(1, 4, 8, 0, 0)
	before := c.Tag.Generation.Load()
	c.SetLocal(1, 1, 1, block.Stone)
	if c.Tag.Generation.Load() != before+1 {
		t.Errorf("generation = %d, want %d", c.Tag.Generation.Load(), before+1)
	}
	if got := c.At(1, 1, 1); got != block.Stone {
		t.Errorf("At(1,1,1) = %v, want Stone", got)
	}
}

func TestRelocateResetsFlagsAndOrigin(t *testing.T) {
	c := New(1, 4, 8, 0, 0)
	c.Flags.Set(FlagHasBlocks)
	c.Flags.Set(FlagHasVoxels)
	c.Relocate(64, 128)
	if c.X != 64 || c.Z != 128 {
		t.Errorf("origin = (%d,%d), want (64,128)", c.X, c.Z)
	}
	if !c.Flags.Has(FlagSetBlocks) || c.Flags.Has(FlagHasBlocks) {
		t.Error("Relocate must reset flags to needs-generation")
	}
}
