package terrain

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
)

// resources are the GPU handles exclusively owned by one chunk. They are
// acquired together and released exactly once.
type resources struct {
	dev         gpu.Device
	vertices    gpu.Buffer
	normals     gpu.Buffer
	fakeShadows gpu.Buffer
	minimap     gpu.Buffer
	strip       gpu.Buffer
	alpha       [MaxLayers - 1]gpu.Texture
	shadow      gpu.Texture
	released    bool
}

// acquireResources creates every handle a chunk needs. On failure the
// handles created so far are released.
func acquireResources(dev gpu.Device) (_ *resources, err error) {
	r := &resources{dev: dev}
	defer func() {
		if err != nil {
			r.release()
		}
	}()

	for _, b := range []*gpu.Buffer{&r.vertices, &r.normals, &r.fakeShadows, &r.minimap, &r.strip} {
		if *b, err = dev.NewBuffer(); err != nil {
			return nil, fmt.Errorf("creating chunk buffer: %w", err)
		}
	}
	for i := range r.alpha {
		if r.alpha[i], err = dev.NewAlphaTexture(); err != nil {
			return nil, fmt.Errorf("creating alpha map %d: %w", i, err)
		}
	}
	if r.shadow, err = dev.NewAlphaTexture(); err != nil {
		return nil, fmt.Errorf("creating shadow map: %w", err)
	}
	return r, nil
}

// release deletes every handle. Later calls do nothing.
func (r *resources) release() {
	if r == nil || r.released {
		return
	}
	r.released = true
	for _, b := range []gpu.Buffer{r.vertices, r.normals, r.fakeShadows, r.minimap, r.strip} {
		if b != 0 {
			r.dev.DeleteBuffer(b)
		}
	}
	for _, t := range r.alpha {
		if t != 0 {
			r.dev.DeleteTexture(t)
		}
	}
	if r.shadow != 0 {
		r.dev.DeleteTexture(r.shadow)
	}
}
