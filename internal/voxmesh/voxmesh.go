// Package voxmesh implements the mesh packer (C2): the packed vertex
// encoding, the fixed per-face corner tables, the shared index pattern, and
// the chunk-to-vertex-slices builder that walks a chunk's voxels applying
// the block package's visibility rule.
//
// The teacher's mesher (internal/meshing/greedy.go) merges runs of same-
// textured faces into arbitrarily large quads, with a two-word packVertex
// (x:5/y:9/z:5/normal:3/brightness:8, then a second word for texture layer
// + tint). This package drops greedy merging — spec.md §4.2 fixes a
// per-face, 4-vertex order so the shared index buffer's 0,1,2,3,2,1 pattern
// works, which only per-voxel-face emission satisfies directly — and packs
// into the single 32-bit word the shader contract requires: ambient
// occlusion is optional per §4.2 and left unstored, which frees enough bits
// for x:6/y:9/z:6/dir:3/u:4/v:4 to fit together.
package voxmesh

import (
	"fmt"

	"voxelcore/internal/block"
)

// PackedVertex is one mesh vertex, packed into a single 32-bit word per
// spec.md §4.2's shader contract.
type PackedVertex struct {
	Word uint32 // x, y, z, direction, u, v
}

// Bit widths and shifts. Sized so x,z cover [0,CW], y covers [0,CH] for the
// spec's default CW=32, CH=256, and u,v cover [0,AtlasDim) for the default
// AtlasDim=16.
const (
	bitsX   = 6
	bitsY   = 9
	bitsZ   = 6
	bitsDir = 3
	bitsU   = 4
	bitsV   = 4

	shiftX   = 0
	shiftY   = shiftX + bitsX
	shiftZ   = shiftY + bitsY
	shiftDir = shiftZ + bitsZ
	shiftU   = shiftDir + bitsDir
	shiftV   = shiftU + bitsU

	maskX   = 1<<bitsX - 1
	maskY   = 1<<bitsY - 1
	maskZ   = 1<<bitsZ - 1
	maskDir = 1<<bitsDir - 1
	maskU   = 1<<bitsU - 1
	maskV   = 1<<bitsV - 1
)

// Pack encodes one vertex. It panics if any field is out of its bit range —
// a programmer error, since callers clamp coordinates to chunk/atlas bounds
// before packing.
func Pack(x, y, z, u, v int, dir block.Direction) PackedVertex {
	assertRange("x", x, maskX)
	assertRange("y", y, maskY)
	assertRange("z", z, maskZ)
	assertRange("u", u, maskU)
	assertRange("v", v, maskV)
	assertRange("dir", int(dir), maskDir)

	word := uint32(x)<<shiftX | uint32(y)<<shiftY | uint32(z)<<shiftZ |
		uint32(dir)<<shiftDir | uint32(u)<<shiftU | uint32(v)<<shiftV
	return PackedVertex{Word: word}
}

func assertRange(name string, v, mask int) {
	if v < 0 || v > mask {
		panic(fmt.Sprintf("voxmesh: field %s=%d out of range [0,%d]", name, v, mask))
	}
}

// Unpack is the exact inverse of Pack.
func Unpack(p PackedVertex) (x, y, z, u, v int, dir block.Direction) {
	x = int(p.Word>>shiftX) & maskX
	y = int(p.Word>>shiftY) & maskY
	z = int(p.Word>>shiftZ) & maskZ
	dir = block.Direction(int(p.Word>>shiftDir) & maskDir)
	u = int(p.Word>>shiftU) & maskU
	v = int(p.Word>>shiftV) & maskV
	return
}

// corner is an integer offset within the unit cube at a voxel's origin.
type corner struct{ X, Y, Z int }

// FaceCorners gives the four corners of a unit cube's face in direction
// dir, wound so the shared 0,1,2,3,2,1 index pattern produces a
// consistently wound quad.
var FaceCorners = [6][4]corner{
	block.North: {{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1}},
	block.South: {{1, 0, 0}, {0, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	block.East:  {{1, 0, 1}, {1, 0, 0}, {1, 1, 1}, {1, 1, 0}},
	block.West:  {{0, 0, 0}, {0, 0, 1}, {0, 1, 0}, {0, 1, 1}},
	block.Up:    {{0, 1, 1}, {1, 1, 1}, {0, 1, 0}, {1, 1, 0}},
	block.Down:  {{0, 0, 0}, {1, 0, 0}, {0, 0, 1}, {1, 0, 1}},
}

// uvCorner is a texel offset within an atlas tile.
type uvCorner struct{ U, V int }

// FaceUVCorners is the fixed (0,0)-(1,0)-(0,1)-(1,1) corner order shared by
// every cube face; tile origin is added by the caller.
var FaceUVCorners = [4]uvCorner{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

// SpriteCorners gives the four cross-quad planes for sprite blocks: two
// diagonal planes through the voxel, each emitted from both sides so the
// sprite is visible from every horizontal approach. North/South form one
// diagonal plane (front/back); East/West form the other.
var SpriteCorners = [6][4]corner{
	block.North: {{0, 0, 0}, {1, 0, 1}, {0, 1, 0}, {1, 1, 1}},
	block.South: {{1, 0, 1}, {0, 0, 0}, {1, 1, 1}, {0, 1, 0}},
	block.East:  {{1, 0, 0}, {0, 0, 1}, {1, 1, 0}, {0, 1, 1}},
	block.West:  {{0, 0, 1}, {1, 0, 0}, {0, 1, 1}, {1, 1, 0}},
}

// SharedIndices emits the index buffer for faceCount quads using the fixed
// 0,1,2,3,2,1 pattern, offset by four indices per face.
func SharedIndices(faceCount int) []uint32 {
	indices := make([]uint32, 0, faceCount*6)
	for i := 0; i < faceCount; i++ {
		base := uint32(i * 4)
		indices = append(indices,
			base+0, base+1, base+2,
			base+3, base+2, base+1,
		)
	}
	return indices
}

// Source is the voxel accessor BuildChunkMesh reads from: the chunk being
// meshed, and (via neighbor lookups) its six face-adjacent chunks.
type Source interface {
	At(x, y, z int) block.Kind
}

// Neighbors supplies the up-to-six chunks bordering the chunk being meshed,
// keyed by direction. A nil entry means "no loaded neighbor" (world edge or
// not-yet-generated), which BuildChunkMesh treats as block.Empty so the
// boundary face is emitted.
type Neighbors [6]Source

// Build holds the three vertex classes a chunk mesh is split into, matching
// the render passes of spec.md §4.8 (opaque, alpha-blended transparent,
// alpha-tested sprite).
type Build struct {
	Opaque      []PackedVertex
	Transparent []PackedVertex
	Sprite      []PackedVertex
}

// BuildChunkMesh walks every voxel of a CW×CH×CW chunk and emits packed
// vertices for each visible face, using block.Visible to decide which faces
// of cube (non-sprite) blocks to emit and sprite corner tables for
// cross-quad blocks. Atlas tile origins come from block.FaceUV.
func BuildChunkMesh(cw, ch int, local Source, neighbors Neighbors) Build {
	var out Build

	at := func(x, y, z int) block.Kind {
		switch {
		case y < 0 || y >= ch:
			return block.Empty
		case x < 0:
			if n := neighbors[block.West]; n != nil {
				return n.At(x+cw, y, z)
			}
			return block.Empty
		case x >= cw:
			if n := neighbors[block.East]; n != nil {
				return n.At(x-cw, y, z)
			}
			return block.Empty
		case z < 0:
			if n := neighbors[block.South]; n != nil {
				return n.At(x, y, z+cw)
			}
			return block.Empty
		case z >= cw:
			if n := neighbors[block.North]; n != nil {
				return n.At(x, y, z-cw)
			}
			return block.Empty
		default:
			return local.At(x, y, z)
		}
	}

	offsetOf := func(dir block.Direction) (dx, dy, dz int) {
		switch dir {
		case block.North:
			return 0, 0, 1
		case block.South:
			return 0, 0, -1
		case block.East:
			return 1, 0, 0
		case block.West:
			return -1, 0, 0
		case block.Up:
			return 0, 1, 0
		default:
			return 0, -1, 0
		}
	}

	emitFace := func(dst *[]PackedVertex, x, y, z int, dir block.Direction, k block.Kind) {
		tile := block.FaceUV(k, dir)
		corners := FaceCorners[dir]
		for i := 0; i < 4; i++ {
			c := corners[i]
			uv := FaceUVCorners[i]
			*dst = append(*dst, Pack(x+c.X, y+c.Y, z+c.Z, tile.U+uv.U, tile.V+uv.V, dir))
		}
	}

	emitSprite := func(x, y, z int, k block.Kind) {
		tile := block.FaceUV(k, block.North)
		for _, dir := range block.HorizontalDirections {
			corners := SpriteCorners[dir]
			for i := 0; i < 4; i++ {
				c := corners[i]
				uv := FaceUVCorners[i]
				out.Sprite = append(out.Sprite, Pack(x+c.X, y+c.Y, z+c.Z, tile.U+uv.U, tile.V+uv.V, dir))
			}
		}
	}

	for x := 0; x < cw; x++ {
		for z := 0; z < cw; z++ {
			for y := 0; y < ch; y++ {
				k := at(x, y, z)
				if k == block.Empty {
					continue
				}
				if block.Sprite(k) {
					emitSprite(x, y, z, k)
					continue
				}
				dst := &out.Opaque
				if !block.Opaque(k) {
					dst = &out.Transparent
				}
				for _, dir := range block.AllDirections {
					dx, dy, dz := offsetOf(dir)
					neighbor := at(x+dx, y+dy, z+dz)
					if block.Visible(k, neighbor) {
						emitFace(dst, x, y, z, dir, k)
					}
				}
			}
		}
	}
	return out
}
