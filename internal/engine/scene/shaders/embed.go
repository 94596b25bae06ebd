// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ChunkVertexShader transforms chunk vertices and derives texture
// coordinates from their position within the chunk.
//
//go:embed chunk.vert
var ChunkVertexShader string

// ChunkFragmentShader blends up to four texture layers through their alpha
// maps and applies lighting, shadows and contour lines.
//
//go:embed chunk.frag
var ChunkFragmentShader string

// PickVertexShader is the vertex shader for the pick pass.
//
//go:embed pick.vert
var PickVertexShader string

// PickFragmentShader writes the chunk name and triangle index as colour.
//
//go:embed pick.frag
var PickFragmentShader string

// LineVertexShader is the vertex shader for outlines.
//
//go:embed line.vert
var LineVertexShader string

// LineFragmentShader draws outlines in a flat colour.
//
//go:embed line.frag
var LineFragmentShader string
