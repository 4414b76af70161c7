package gpu

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"voxelcore/internal/voxmesh"
)

// glBuffer is a device-resident OpenGL buffer object.
type glBuffer struct {
	id   uint32
	size int
}

func (b *glBuffer) Size() int { return b.size }

// glTransferBuffer is host-visible staging memory, mapped via
// gl.MapBuffer/gl.UnmapBuffer the way spec.md §6's "map/write/unmap"
// transfer-buffer contract describes.
type glTransferBuffer struct {
	id     uint32
	size   int
	mapped []byte
}

func (t *glTransferBuffer) Size() int { return t.size }

func (t *glTransferBuffer) Map() ([]byte, error) {
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, t.id)
	ptr := gl.MapBuffer(gl.COPY_WRITE_BUFFER, gl.WRITE_ONLY)
	if ptr == nil {
		return nil, fmt.Errorf("gpu: MapBuffer failed for transfer buffer %d", t.id)
	}
	t.mapped = unsafe.Slice((*byte)(ptr), t.size)
	return t.mapped, nil
}

func (t *glTransferBuffer) Unmap() {
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, t.id)
	gl.UnmapBuffer(gl.COPY_WRITE_BUFFER)
	t.mapped = nil
}

// glCopyPass implements Upload as a device-side buffer-to-buffer copy, the
// OpenGL analogue of uploading a transfer buffer region into a device
// buffer: no intermediate host round trip beyond the Map/Unmap already
// done on the transfer buffer.
type glCopyPass struct{}

func (glCopyPass) Upload(src TransferBuffer, n int, dst Buffer, dstOffset int) {
	s := src.(*glTransferBuffer)
	d := dst.(*glBuffer)
	gl.BindBuffer(gl.COPY_READ_BUFFER, s.id)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, d.id)
	gl.CopyBufferSubData(gl.COPY_READ_BUFFER, gl.COPY_WRITE_BUFFER, 0, dstOffset, n)
}

// glCommandBuffer models spec.md §6's command-buffer/copy-pass contract on
// top of OpenGL, which has neither: copy passes execute synchronously on
// the calling goroutine as they're opened, and Submit is a gl.Flush.
type glCommandBuffer struct{}

func (glCommandBuffer) BeginCopyPass() CopyPass { return glCopyPass{} }
func (glCommandBuffer) EndCopyPass(_ CopyPass)  {}
func (glCommandBuffer) Submit()                 { gl.Flush() }

// Device is the go-gl-backed implementation of gpu.Device.
type Device struct {
	mu       sync.Mutex
	indexBuf *glBuffer
	indexCap int // capacity in uint32 indices
}

// NewDevice returns a Device bound to the calling goroutine's current
// OpenGL context. Callers must have already called gl.Init() on a context
// made current on this goroutine (see cmd/voxeldemo).
func NewDevice() *Device {
	return &Device{}
}

func usageTarget(u Usage) uint32 {
	switch u {
	case UsageVertex:
		return gl.ARRAY_BUFFER
	case UsageIndex:
		return gl.ELEMENT_ARRAY_BUFFER
	case UsageStorage:
		return gl.SHADER_STORAGE_BUFFER
	default:
		return gl.COPY_WRITE_BUFFER
	}
}

func (d *Device) CreateBuffer(usage Usage, sizeBytes int) (Buffer, error) {
	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return nil, fmt.Errorf("gpu: glGenBuffers failed")
	}
	target := usageTarget(usage)
	gl.BindBuffer(target, id)
	gl.BufferData(target, sizeBytes, nil, gl.DYNAMIC_DRAW)
	return &glBuffer{id: id, size: sizeBytes}, nil
}

func (d *Device) CreateTransferBuffer(sizeBytes int) (TransferBuffer, error) {
	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return nil, fmt.Errorf("gpu: glGenBuffers failed")
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, id)
	gl.BufferData(gl.COPY_WRITE_BUFFER, sizeBytes, nil, gl.STREAM_DRAW)
	return &glTransferBuffer{id: id, size: sizeBytes}, nil
}

func (d *Device) AcquireCommandBuffer() CommandBuffer {
	return glCommandBuffer{}
}

// EnsureIndexCapacity grows the shared index buffer under d.mu, matching
// spec.md §5's "create_indices" mutex-serialized growth. The buffer holds
// the fixed 0,1,2,3,2,1-per-face pattern (voxmesh.SharedIndices) for every
// chunk's draw, since every mesh class uses the same per-face winding —
// growth reuploads the whole pattern for the new capacity.
func (d *Device) EnsureIndexCapacity(indexCount int) (Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.indexBuf != nil && d.indexCap >= indexCount {
		return d.indexBuf, nil
	}
	newCap := 6
	if d.indexCap > 0 {
		newCap = d.indexCap
	}
	for newCap < indexCount {
		newCap *= 2
	}

	faceCount := newCap / 6
	indices := voxmesh.SharedIndices(faceCount)

	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return nil, fmt.Errorf("gpu: glGenBuffers failed")
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, id)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	if d.indexBuf != nil {
		old := d.indexBuf.id
		gl.DeleteBuffers(1, &old)
	}
	d.indexBuf = &glBuffer{id: id, size: len(indices) * 4}
	d.indexCap = faceCount * 6
	return d.indexBuf, nil
}

func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexBuf != nil {
		id := d.indexBuf.id
		gl.DeleteBuffers(1, &id)
		d.indexBuf = nil
	}
}

// GLRenderPass is the go-gl RenderPass implementation: one VAO reused
// across every chunk draw this frame, with a vertex attribute matching
// voxmesh.PackedVertex's single-uint32-word layout (bound as an integer
// attribute so the vertex shader can unpack bitfields itself).
type GLRenderPass struct {
	program     uint32
	vao         uint32
	originLoc   int32
	lightCntLoc int32
}

// NewGLRenderPass wires a linked shader program's "u_chunk_origin" and
// "u_light_count" uniforms and allocates the shared VAO. Called once at
// startup, not per frame; World.Render receives the same *GLRenderPass
// every frame as its gpu.RenderPass argument.
func NewGLRenderPass(program uint32) *GLRenderPass {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return &GLRenderPass{
		program:     program,
		vao:         vao,
		originLoc:   gl.GetUniformLocation(program, gl.Str("u_chunk_origin\x00")),
		lightCntLoc: gl.GetUniformLocation(program, gl.Str("u_light_count\x00")),
	}
}

func (p *GLRenderPass) BindVertexBuffer(buf Buffer) {
	b := buf.(*glBuffer)
	gl.BindVertexArray(p.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
	// One packed x/y/z/dir/u/v word per vertex, fetched as a raw uint32
	// attribute; the vertex shader does the bit-unpacking.
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribIPointer(0, 1, gl.UNSIGNED_INT, 4, gl.PtrOffset(0))
}

func (p *GLRenderPass) BindIndexBuffer(buf Buffer) {
	b := buf.(*glBuffer)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.id)
}

func (p *GLRenderPass) BindLightBuffer(buf Buffer) {
	b := buf.(*glBuffer)
	const lightBufferBinding = 0
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, lightBufferBinding, b.id)
}

func (p *GLRenderPass) PushChunkOrigin(x, y, z float32) {
	gl.Uniform3f(p.originLoc, x, y, z)
}

func (p *GLRenderPass) PushLightCount(n int) {
	gl.Uniform1i(p.lightCntLoc, int32(n))
}

func (p *GLRenderPass) DrawIndexed(indexCount int) {
	gl.DrawElements(gl.TRIANGLES, int32(indexCount), gl.UNSIGNED_INT, nil)
}
