package gpu

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Recorder is an in-memory Device. It keeps the last data uploaded to each
// handle and counts uploads and deletions, for headless tools and tests.
type Recorder struct {
	next     uint32
	buffers  map[Buffer]*RecordedBuffer
	textures map[Texture]*RecordedTexture

	// Uploads counts every successful upload call.
	Uploads int
	// Deleted counts handles released through DeleteBuffer and DeleteTexture.
	Deleted int
	// DoubleFrees counts deletions of handles that were not live.
	DoubleFrees int
	// FailAfter makes resource creation fail once this many handles exist.
	// Zero disables the limit.
	FailAfter int
}

// RecordedBuffer is the last contents of a buffer.
type RecordedBuffer struct {
	Vec3    []mgl32.Vec3
	Vec4    []mgl32.Vec4
	Indices []uint16
	Uploads int
}

// RecordedTexture is the last contents of a texture.
type RecordedTexture struct {
	Size    int
	Width   int
	Height  int
	Data    []byte
	Uploads int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		buffers:  make(map[Buffer]*RecordedBuffer),
		textures: make(map[Texture]*RecordedTexture),
	}
}

func (r *Recorder) alloc() (uint32, error) {
	if r.FailAfter > 0 && r.Live() >= r.FailAfter {
		return 0, fmt.Errorf("recorder: handle limit %d reached", r.FailAfter)
	}
	r.next++
	return r.next, nil
}

// Live returns the number of live handles.
func (r *Recorder) Live() int {
	return len(r.buffers) + len(r.textures)
}

// NewBuffer implements Device.
func (r *Recorder) NewBuffer() (Buffer, error) {
	id, err := r.alloc()
	if err != nil {
		return 0, err
	}
	b := Buffer(id)
	r.buffers[b] = &RecordedBuffer{}
	return b, nil
}

func (r *Recorder) buffer(b Buffer) (*RecordedBuffer, error) {
	rb, ok := r.buffers[b]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", ErrInvalidHandle, b)
	}
	rb.Uploads++
	r.Uploads++
	return rb, nil
}

// UploadVec3 implements Device.
func (r *Recorder) UploadVec3(b Buffer, data []mgl32.Vec3) error {
	rb, err := r.buffer(b)
	if err != nil {
		return err
	}
	rb.Vec3 = slices.Clone(data)
	return nil
}

// UploadVec4 implements Device.
func (r *Recorder) UploadVec4(b Buffer, data []mgl32.Vec4) error {
	rb, err := r.buffer(b)
	if err != nil {
		return err
	}
	rb.Vec4 = slices.Clone(data)
	return nil
}

// UploadIndices implements Device.
func (r *Recorder) UploadIndices(b Buffer, data []uint16) error {
	rb, err := r.buffer(b)
	if err != nil {
		return err
	}
	rb.Indices = slices.Clone(data)
	return nil
}

// DeleteBuffer implements Device.
func (r *Recorder) DeleteBuffer(b Buffer) {
	if _, ok := r.buffers[b]; !ok {
		r.DoubleFrees++
		return
	}
	delete(r.buffers, b)
	r.Deleted++
}

// NewAlphaTexture implements Device.
func (r *Recorder) NewAlphaTexture() (Texture, error) {
	id, err := r.alloc()
	if err != nil {
		return 0, err
	}
	t := Texture(id)
	r.textures[t] = &RecordedTexture{}
	return t, nil
}

// UploadAlpha implements Device.
func (r *Recorder) UploadAlpha(t Texture, size int, data []byte) error {
	rt, ok := r.textures[t]
	if !ok {
		return fmt.Errorf("%w: texture %d", ErrInvalidHandle, t)
	}
	rt.Size = size
	rt.Data = slices.Clone(data)
	rt.Uploads++
	r.Uploads++
	return nil
}

// NewRGBATexture implements Device.
func (r *Recorder) NewRGBATexture(width, height int, pixels []byte) (Texture, error) {
	id, err := r.alloc()
	if err != nil {
		return 0, err
	}
	t := Texture(id)
	r.textures[t] = &RecordedTexture{Width: width, Height: height, Data: slices.Clone(pixels), Uploads: 1}
	r.Uploads++
	return t, nil
}

// DeleteTexture implements Device.
func (r *Recorder) DeleteTexture(t Texture) {
	if _, ok := r.textures[t]; !ok {
		r.DoubleFrees++
		return
	}
	delete(r.textures, t)
	r.Deleted++
}

// IsTexture implements Device.
func (r *Recorder) IsTexture(t Texture) bool {
	_, ok := r.textures[t]
	return ok
}

// Buffer returns the recorded state of b, or nil if it is not live.
func (r *Recorder) Buffer(b Buffer) *RecordedBuffer {
	return r.buffers[b]
}

// Texture returns the recorded state of t, or nil if it is not live.
func (r *Recorder) Texture(t Texture) *RecordedTexture {
	return r.textures[t]
}

// Invalidate drops t without counting a deletion, simulating a handle that
// was lost behind the owner's back.
func (r *Recorder) Invalidate(t Texture) {
	delete(r.textures, t)
}
