// Package formats decodes and encodes terrain tiles: an MTEX texture name
// table followed by MCNK chunk blocks, each holding a 145-vertex height
// grid, packed normals, up to four texture layers with their alpha maps,
// and a bit-packed shadow mask.
package formats
