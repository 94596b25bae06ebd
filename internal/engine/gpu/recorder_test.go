package gpu

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_BufferLifecycle(t *testing.T) {
	r := NewRecorder()

	b, err := r.NewBuffer()
	require.NoError(t, err)
	require.NoError(t, r.UploadVec3(b, []mgl32.Vec3{{1, 2, 3}}))
	require.NoError(t, r.UploadIndices(b, []uint16{0, 1, 2}))

	rb := r.Buffer(b)
	require.NotNil(t, rb)
	assert.Equal(t, 2, rb.Uploads)
	assert.Equal(t, []uint16{0, 1, 2}, rb.Indices)

	r.DeleteBuffer(b)
	r.DeleteBuffer(b)
	assert.Equal(t, 1, r.Deleted)
	assert.Equal(t, 1, r.DoubleFrees)
	assert.Zero(t, r.Live())

	err = r.UploadVec3(b, nil)
	assert.True(t, errors.Is(err, ErrInvalidHandle))
}

func TestRecorder_Textures(t *testing.T) {
	r := NewRecorder()

	tex, err := r.NewAlphaTexture()
	require.NoError(t, err)
	assert.True(t, r.IsTexture(tex))

	data := []byte{1, 2, 3, 4}
	require.NoError(t, r.UploadAlpha(tex, 2, data))
	data[0] = 9
	assert.Equal(t, byte(1), r.Texture(tex).Data[0], "upload must copy")

	r.Invalidate(tex)
	assert.False(t, r.IsTexture(tex))
	assert.Error(t, r.UploadAlpha(tex, 2, data))
	assert.Zero(t, r.Deleted)
}

func TestRecorder_FailAfter(t *testing.T) {
	r := NewRecorder()
	r.FailAfter = 2

	_, err := r.NewBuffer()
	require.NoError(t, err)
	_, err = r.NewAlphaTexture()
	require.NoError(t, err)
	_, err = r.NewBuffer()
	assert.Error(t, err)
}
