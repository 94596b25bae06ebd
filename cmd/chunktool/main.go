// chunktool is a CLI utility for inspecting and generating terrain tiles.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/chewxy/math32"
	"github.com/fatih/color"

	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/formats"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	warn    = color.New(color.FgYellow)
	fail    = color.New(color.FgRed)
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "dump":
		cmdDump(args)
	case "gen":
		cmdGen(args)
	case "alpha":
		cmdAlpha(args)
	case "heightmap":
		cmdHeightmap(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fail.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`chunktool - terrain tile utility

Usage:
  chunktool <command> [options]

Commands:
  info [-big-alpha] [-euckr] <tile>            Show texture table and chunk summary
  dump [-chunk N] <tile>                       Print one chunk's header, layers and heights
  gen [-n N] [-seed S] [-amp A] <out>          Generate a Perlin noise tile
  alpha [-chunk N] [-layer L] <tile> <out.png> Export an alpha map (layer 0 = shadow)
  heightmap [-chunk N] <tile> <out.png>        Export a chunk's coloured height grid

Examples:
  chunktool info azeroth_32_48.adt
  chunktool dump -chunk 17 azeroth_32_48.adt
  chunktool gen -n 4 -seed 7 hills.adt
  chunktool alpha -chunk 0 -layer 1 hills.adt alpha.png`)
}

func exitf(format string, args ...any) {
	fail.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// tileFlags registers the decoding flags shared by the read commands.
func tileFlags(fs *flag.FlagSet) *formats.TileOptions {
	opts := &formats.TileOptions{}
	fs.BoolVar(&opts.BigAlpha, "big-alpha", false, "Read 8-bit alpha maps")
	fs.BoolVar(&opts.EUCKRNames, "euckr", false, "Decode texture names as EUC-KR")
	return opts
}

func openTile(path string, opts formats.TileOptions) *formats.Tile {
	tile, err := formats.ParseTileFile(path, opts)
	if err != nil {
		exitf("%v", err)
	}
	return tile
}

func chunkArg(tile *formats.Tile, i int) *formats.MCNK {
	if i < 0 || i >= len(tile.Chunks) {
		exitf("chunk %d out of range (tile has %d)", i, len(tile.Chunks))
	}
	return tile.Chunks[i]
}

func countHoles(h uint16) int {
	n := 0
	for ; h != 0; h &= h - 1 {
		n++
	}
	return n
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	opts := tileFlags(fs)
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: chunktool info <tile>")
		os.Exit(1)
	}

	tile := openTile(fs.Arg(0), *opts)

	heading.Printf("Tile: %s\n", fs.Arg(0))
	fmt.Printf("Chunks:   %d\n", len(tile.Chunks))
	fmt.Printf("Textures: %d\n", len(tile.Textures))
	for i, name := range tile.Textures {
		fmt.Printf("  %3d  %s\n", i, name)
	}
	fmt.Println()

	heading.Println("  #   ix  iy  layers  holes  area      minY      maxY  flags")
	var liquid int
	for i, c := range tile.Chunks {
		fmt.Printf("%3d  %3d %3d  %6d  %5d  %4d  %8.2f  %8.2f  %#x\n",
			i, c.Header.IX, c.Header.IY, len(c.Layers), countHoles(c.Header.Holes),
			c.Header.AreaID, c.MinY, c.MaxY, c.Header.Flags)
		if c.HasLiquid {
			liquid++
		}
	}
	if liquid > 0 {
		warn.Printf("%d chunks carry liquid data, which is not decoded\n", liquid)
	}
}

func cmdDump(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	opts := tileFlags(fs)
	index := fs.Int("chunk", 0, "Chunk index")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: chunktool dump [-chunk N] <tile>")
		os.Exit(1)
	}

	tile := openTile(fs.Arg(0), *opts)
	c := chunkArg(tile, *index)

	heading.Printf("Chunk %d (%d, %d)\n", *index, c.Header.IX, c.Header.IY)
	fmt.Printf("Base:   %.2f, %.2f, %.2f\n", c.Base[0], c.Base[1], c.Base[2])
	fmt.Printf("Flags:  %#x  Area: %d  Holes: %016b\n", c.Header.Flags, c.Header.AreaID, c.Header.Holes)
	fmt.Printf("Shadow: %v  Liquid: %v\n", c.HasShadow, c.HasLiquid)
	fmt.Println()

	heading.Println("Layers")
	for i, l := range c.Layers {
		line := fmt.Sprintf("  %d  %-40s flags %#x", i, tile.TextureName(l.TextureID), l.Flags)
		if l.Animation != 0 {
			line += fmt.Sprintf("  anim speed %d dir %d",
				terrain.AnimSpeed(l.Animation), l.Animation&formats.LayerFlagAnimDirection)
		}
		fmt.Println(line)
	}
	fmt.Println()

	heading.Println("Heights")
	for row := 0; row < formats.GridRows; row++ {
		var b strings.Builder
		if row%2 == 1 {
			b.WriteString("    ")
		}
		for col := 0; col < formats.RowWidth(row); col++ {
			y := c.Positions[formats.VertexIndex(col, row)][1] - c.Base[1]
			fmt.Fprintf(&b, "%8.2f", y)
		}
		fmt.Println(b.String())
	}
}

func cmdGen(args []string) {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	n := fs.Int("n", formats.ChunksPerTile, "Chunks per side")
	seed := fs.Int64("seed", 1, "Noise seed")
	amp := fs.Float64("amp", 40, "Height amplitude")
	scale := fs.Float64("scale", 0.01, "Noise frequency per world unit")
	textures := fs.String("textures", "tileset/grass.blp,tileset/dirt.blp", "Comma-separated texture table")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: chunktool gen [-n N] [-seed S] [-amp A] <out>")
		os.Exit(1)
	}
	if *n < 1 || *n > formats.ChunksPerTile {
		exitf("-n must be between 1 and %d", formats.ChunksPerTile)
	}

	noise := perlin.NewPerlin(2, 2, 3, *seed)
	height := func(x, z float32) float32 {
		return float32(noise.Noise2D(float64(x)**scale, float64(z)**scale) * *amp)
	}

	tile := &formats.Tile{Textures: strings.Split(*textures, ",")}
	for iy := 0; iy < *n; iy++ {
		for ix := 0; ix < *n; ix++ {
			base := [3]float32{float32(ix) * formats.ChunkSize, 0, float32(iy) * formats.ChunkSize}
			m := formats.NewMCNK(uint32(ix), uint32(iy), base)
			for i := range m.Positions {
				p := m.Positions[i]
				m.SetHeight(i, height(p[0], p[2]))
			}
			m.Layers = []formats.ChunkLayer{{TextureID: 0}}
			if len(tile.Textures) > 1 {
				m.Layers = append(m.Layers, formats.ChunkLayer{TextureID: 1, Flags: formats.LayerFlagUseAlpha})
				m.Alpha[0] = slopeAlpha(m, height)
			}
			for i := range m.Normals {
				p := m.Positions[i]
				m.Normals[i] = noiseNormal(p[0], p[2], height)
			}
			tile.Chunks = append(tile.Chunks, m)
		}
	}

	data := formats.EncodeTile(tile, formats.TileOptions{})
	if err := os.WriteFile(fs.Arg(0), data, 0o644); err != nil {
		exitf("%v", err)
	}
	heading.Printf("Wrote %s: %d chunks, %d bytes\n", fs.Arg(0), len(tile.Chunks), len(data))
}

// noiseNormal estimates the surface normal of the height field by central
// differences.
func noiseNormal(x, z float32, height func(x, z float32) float32) [3]float32 {
	const d = formats.UnitSize / 2
	dx := (height(x+d, z) - height(x-d, z)) / (2 * d)
	dz := (height(x, z+d) - height(x, z-d)) / (2 * d)
	l := math32.Sqrt(dx*dx + 1 + dz*dz)
	return [3]float32{-dx / l, 1 / l, -dz / l}
}

// slopeAlpha covers the second texture where the noise field is steep.
func slopeAlpha(m *formats.MCNK, height func(x, z float32) float32) []byte {
	const step = formats.ChunkSize / formats.AlphaSize
	alpha := make([]byte, formats.AlphaMapSize)
	for j := 0; j < formats.AlphaSize; j++ {
		for i := 0; i < formats.AlphaSize; i++ {
			x := m.Base[0] + float32(i)*step
			z := m.Base[2] + float32(j)*step
			dx := height(x+step, z) - height(x, z)
			dz := height(x, z+step) - height(x, z)
			v := (dx*dx + dz*dz) * 255
			alpha[j*formats.AlphaSize+i] = byte(min(v, 255))
		}
	}
	return alpha
}

func cmdAlpha(args []string) {
	fs := flag.NewFlagSet("alpha", flag.ExitOnError)
	opts := tileFlags(fs)
	index := fs.Int("chunk", 0, "Chunk index")
	layer := fs.Int("layer", 1, "Layer (1-3), or 0 for the shadow mask")
	fs.Parse(args)
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: chunktool alpha [-chunk N] [-layer L] <tile> <out.png>")
		os.Exit(1)
	}

	tile := openTile(fs.Arg(0), *opts)
	c := chunkArg(tile, *index)

	var data []byte
	switch {
	case *layer == 0:
		data = c.Shadow
	case *layer < len(c.Layers):
		data = c.Alpha[*layer-1]
	default:
		exitf("chunk %d has %d layers", *index, len(c.Layers))
	}

	img, err := debug.GrayMap(data, formats.AlphaSize)
	if err != nil {
		exitf("%v", err)
	}
	if err := debug.SavePNG(fs.Arg(1), img); err != nil {
		exitf("%v", err)
	}
	heading.Printf("Wrote %s\n", fs.Arg(1))
}

// blankTextures satisfies chunk construction without image data.
type blankTextures struct{ dev gpu.Device }

func (b blankTextures) Acquire(string) (gpu.Texture, error) {
	return b.dev.NewRGBATexture(1, 1, []byte{255, 255, 255, 255})
}

func (blankTextures) Release(string) {}

func cmdHeightmap(args []string) {
	fs := flag.NewFlagSet("heightmap", flag.ExitOnError)
	opts := tileFlags(fs)
	index := fs.Int("chunk", 0, "Chunk index")
	fs.Parse(args)
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: chunktool heightmap [-chunk N] <tile> <out.png>")
		os.Exit(1)
	}

	tile := openTile(fs.Arg(0), *opts)
	m := chunkArg(tile, *index)

	dev := gpu.NewRecorder()
	c, err := terrain.NewChunk(m, tile.Textures, terrain.Services{GPU: dev, Textures: blankTextures{dev}})
	if err != nil {
		exitf("%v", err)
	}
	defer c.Destroy()

	if err := debug.SavePNG(fs.Arg(1), debug.HeightImage(c)); err != nil {
		exitf("%v", err)
	}
	heading.Printf("Wrote %s\n", fs.Arg(1))
}
