// Package gpu describes the external GPU collaborator the world streaming
// core depends on: buffer creation, transfer-buffer map/write/unmap, and
// command-buffer/copy-pass submission. The shader/pipeline library, camera
// math beyond vector types, and the window/event loop are out of scope —
// only the contract this core needs to upload chunk meshes and issue draws.
package gpu

// Usage classifies what a Buffer is bound for. The worker pool and
// voxelworld façade only ever request these four classes.
type Usage int

const (
	UsageVertex Usage = iota
	UsageIndex
	UsageStorage // graphics-read storage, used for per-chunk light lists
	UsageTransferUpload
)

// Buffer is an opaque device-resident allocation.
type Buffer interface {
	// Size is the buffer's capacity in bytes.
	Size() int
}

// TransferBuffer is host-visible staging memory a CopyPass uploads from.
type TransferBuffer interface {
	// Map returns a byte slice backed by the transfer buffer's memory.
	// The caller writes into it and calls Unmap before submitting any
	// copy that reads from it.
	Map() ([]byte, error)
	Unmap()
	Size() int
}

// CopyPass uploads transfer-buffer contents into device buffers. It is
// only valid for the lifetime of the CommandBuffer that opened it.
type CopyPass interface {
	// Upload copies src[0:n] into dst starting at dstOffset bytes.
	Upload(src TransferBuffer, n int, dst Buffer, dstOffset int)
}

// CommandBuffer batches copy passes and other device work before a single
// Submit. OpenGL has no real command buffers, so the glbackend
// implementation executes work synchronously and Submit just flushes.
type CommandBuffer interface {
	BeginCopyPass() CopyPass
	EndCopyPass(CopyPass)
	Submit()
}

// RenderPass is the per-frame draw target voxelworld.Render writes into.
type RenderPass interface {
	BindVertexBuffer(buf Buffer)
	BindIndexBuffer(buf Buffer)
	BindLightBuffer(buf Buffer)
	PushChunkOrigin(x, y, z float32)
	PushLightCount(n int)
	DrawIndexed(indexCount int)
}

// Device is the root GPU handle: it allocates buffers and vends command
// buffers; it does not create render passes.
// EnsureIndexCapacity implements spec.md
// §5/§4.6's shared, mutex-grown index buffer ("create_indices").
type Device interface {
	CreateBuffer(usage Usage, sizeBytes int) (Buffer, error)
	CreateTransferBuffer(sizeBytes int) (TransferBuffer, error)
	AcquireCommandBuffer() CommandBuffer

	// EnsureIndexCapacity grows (never shrinks) the shared index buffer to
	// hold at least indexCount uint32 indices, returning it. Safe for
	// concurrent callers; internally serialized.
	EnsureIndexCapacity(indexCount int) (Buffer, error)

	Destroy()
}
