package editor

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/assets"
	"github.com/Faultbox/midgard-terrain/internal/brush"
	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/camera"
	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/input"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/picking"
	"github.com/Faultbox/midgard-terrain/internal/engine/renderer"
	"github.com/Faultbox/midgard-terrain/internal/engine/scene"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/window"
	"github.com/Faultbox/midgard-terrain/internal/history"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/metrics"
	"github.com/Faultbox/midgard-terrain/internal/selection"
	"github.com/Faultbox/midgard-terrain/internal/world"
	"github.com/Faultbox/midgard-terrain/pkg/formats"
)

const (
	title = "Midgard Terrain"

	// Mouse buttons as reported by SDL.
	buttonLeft  = 1
	buttonRight = 3

	// Rays march this far across the terrain when the pick pass misses.
	marchDistance = terrain.ChunkSize * 24
	marchStep     = terrain.UnitSize / 2

	moveSpeed = 120
)

var outlines = scene.OutlineColors{
	Edge:     mgl32.Vec3{0.6, 0.6, 0.6},
	TileEdge: mgl32.Vec3{1, 0.8, 0.2},
	Holes:    mgl32.Vec3{1, 0.2, 0.2},
}

// Editor is the interactive terrain editor.
type Editor struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	chunks   *scene.ChunkRenderer
	pickFB   *framebuffer.Framebuffer

	dev      *gpu.GL
	files    *assets.Manager
	textures *assets.TextureManager
	names    *selection.Names
	areas    *terrain.AreaColors
	history  *history.History
	metrics  *metrics.Editor
	shots    *debug.ScreenshotCapture

	tile    *world.Tile
	path    string
	session *Session
	sun     lighting.Sun

	started   time.Time
	mode      scene.Mode
	contours  bool
	wireframe bool
	outlines  bool

	// pending receives paths chosen in the file dialog, which runs off the
	// main thread.
	pending chan string
	log     *zap.Logger
}

// New opens the window and GL context and prepares an empty editor. m may
// be nil.
func New(cfg *config.Config, m *metrics.Editor) (*Editor, error) {
	log := logger.Named("editor")
	log.Info("initializing editor",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("paint_mode", cfg.Editor.PaintMode),
	)

	e := &Editor{
		cfg:      cfg,
		input:    input.New(),
		camera:   camera.NewOrbitCamera(),
		names:    selection.NewNames(),
		areas:    terrain.NewAreaColors(uint64(time.Now().UnixNano())),
		metrics:  m,
		shots:    debug.NewScreenshotCapture("screenshots", "terrain"),
		sun:      lighting.DefaultSun(),
		started:  time.Now(),
		outlines: true,
		pending:  make(chan string, 1),
		log:      log,
	}

	var err error
	e.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer needs the context the window just made current.
	w, h := e.window.GetSize()
	e.renderer, err = renderer.New(renderer.Config{
		Width:      w,
		Height:     h,
		Background: mgl32.Vec3{0.2, 0.25, 0.3},
	})
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	e.dev = gpu.NewGL(cfg.Graphics.Anisotropy)
	if e.chunks, err = scene.NewChunkRenderer(e.dev); err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create chunk renderer: %w", err)
	}
	if e.pickFB, err = framebuffer.New(int32(w), int32(h)); err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create pick target: %w", err)
	}

	e.files = assets.NewManager()
	for _, dir := range cfg.Data.TexturePaths {
		if err := e.files.AddDir(dir); err != nil {
			log.Warn("texture directory unavailable", zap.String("dir", dir), zap.Error(err))
		}
	}
	e.textures = assets.NewTextureManager(e.dev, e.files)

	if e.history, err = history.New(cfg.History.Depth, cfg.History.ZstdLevel); err != nil {
		e.Close()
		return nil, err
	}

	log.Info("editor initialized")
	return e, nil
}

// Open loads a tile file, replacing the current one.
func (e *Editor) Open(path string) error {
	settings, err := SettingsFromConfig(e.cfg.Editor)
	if err != nil {
		return err
	}
	if e.session != nil {
		e.session.End()
		settings = e.session.Settings
	}

	svc := terrain.Services{GPU: e.dev, Textures: e.textures, Names: e.names}
	tile, err := world.LoadFile(path, svc, world.Options{
		Format: formats.TileOptions{
			BigAlpha:   e.cfg.Editor.BigAlpha,
			EUCKRNames: e.cfg.Editor.EUCKRNames,
		},
		PaintMode: terrain.PaintMode(e.cfg.Editor.PaintMode),
		History:   e.history,
		Metrics:   e.metrics,
		Areas:     e.areas,
	})
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	if e.tile != nil {
		e.tile.Close()
	}
	e.history.Clear()
	e.tile = tile
	e.path = path

	b := brush.New(e.cfg.Editor.BrushRadius, e.cfg.Editor.BrushHardness)
	e.session = NewSession(tile, b, settings)
	if names := tile.Textures(); len(names) > 0 && e.session.Texture == "" {
		e.session.Texture = names[0]
	}

	e.fitCamera()
	e.updateTitle()
	e.log.Info("tile opened", zap.String("path", path), zap.Int("chunks", tile.Len()))
	return nil
}

func (e *Editor) fitCamera() {
	hi := terrain.OffMapPosition
	lo := hi.Mul(-1)
	e.tile.Each(func(c *terrain.Chunk) {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], c.Bounds.Min[i])
			hi[i] = max(hi[i], c.Bounds.Max[i])
		}
	})
	e.camera.FitToBounds(lo, hi)
}

// Save writes the tile back to the file it was opened from.
func (e *Editor) Save() error {
	if e.tile == nil {
		return errors.New("no tile open")
	}
	if err := e.tile.SaveFile(e.path); err != nil {
		return err
	}
	e.log.Info("tile saved", zap.String("path", e.path))
	return nil
}

// Run drives the frame loop until the window closes.
func (e *Editor) Run() error {
	e.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()
	var minFrame time.Duration
	if e.cfg.Graphics.FPSLimit > 0 {
		minFrame = time.Second / time.Duration(e.cfg.Graphics.FPSLimit)
	}

	e.log.Info("starting editor loop")
	for e.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if e.input.Update() {
			e.running = false
			break
		}
		for _, ev := range e.input.Events() {
			e.handleEvent(ev)
		}

		select {
		case path := <-e.pending:
			if err := e.Open(path); err != nil {
				e.log.Error("open failed", zap.Error(err))
			}
		default:
		}

		e.update(dt)
		e.render()
		e.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			e.log.Debug("fps", zap.Int("count", frameCount), zap.Float32("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
		if elapsed := time.Since(now); elapsed < minFrame {
			time.Sleep(minFrame - elapsed)
		}
	}
	return nil
}

func (e *Editor) handleEvent(ev input.Event) {
	switch ev.Type {
	case input.EventWindowResize:
		w, h := e.window.GetSize()
		e.renderer.Resize(w, h)
		e.pickFB.Resize(int32(w), int32(h))
	case input.EventKeyDown:
		e.handleKey(ev)
	case input.EventMouseDown:
		if ev.Button == buttonLeft && e.session != nil {
			if pos, ok := e.pickAt(ev.MouseX, ev.MouseY); ok {
				e.session.Begin(pos)
			}
		}
	case input.EventMouseUp:
		if ev.Button == buttonLeft && e.session != nil {
			e.session.End()
			e.updateTitle()
		}
	case input.EventMouseMove:
		if e.input.IsButtonDown(buttonRight) {
			e.camera.HandleDrag(float32(ev.RelX), float32(ev.RelY))
		}
	case input.EventWheel:
		e.camera.HandleZoom(ev.Wheel)
	case input.EventDropFile:
		if err := e.Open(ev.Path); err != nil {
			e.log.Error("open failed", zap.Error(err))
		}
	}
}

var toolKeys = map[sdl.Scancode]Tool{
	sdl.SCANCODE_1: ToolRaise,
	sdl.SCANCODE_2: ToolLower,
	sdl.SCANCODE_3: ToolFlatten,
	sdl.SCANCODE_4: ToolBlur,
	sdl.SCANCODE_5: ToolPaint,
	sdl.SCANCODE_6: ToolHole,
	sdl.SCANCODE_7: ToolFill,
	sdl.SCANCODE_8: ToolArea,
}

func (e *Editor) handleKey(ev input.Event) {
	ctrl := ev.Mod&sdl.KMOD_CTRL != 0 || ev.Mod&sdl.KMOD_GUI != 0

	switch {
	case ev.Key == sdl.SCANCODE_ESCAPE:
		e.running = false
	case ctrl && ev.Key == sdl.SCANCODE_O:
		e.openDialog()
	case ev.Key == sdl.SCANCODE_F12:
		e.screenshot()
	case ev.Key == sdl.SCANCODE_TAB:
		e.mode = (e.mode + 1) % (scene.ModeArea + 1)
	case ev.Key == sdl.SCANCODE_C:
		e.contours = !e.contours
	case ev.Key == sdl.SCANCODE_G:
		e.outlines = !e.outlines
	case ev.Key == sdl.SCANCODE_F3:
		e.wireframe = !e.wireframe
		e.renderer.Wireframe(e.wireframe)
	}

	if e.session == nil {
		return
	}
	var err error
	switch {
	case ctrl && ev.Key == sdl.SCANCODE_Z:
		_, err = e.tile.Undo()
	case ctrl && ev.Key == sdl.SCANCODE_Y:
		_, err = e.tile.Redo()
	case ctrl && ev.Key == sdl.SCANCODE_S:
		err = e.Save()
	case ev.Key == sdl.SCANCODE_LEFTBRACKET:
		e.session.Brush().SetRadius(e.session.Brush().Radius() * 0.8)
	case ev.Key == sdl.SCANCODE_RIGHTBRACKET:
		e.session.Brush().SetRadius(e.session.Brush().Radius() * 1.25)
	case ev.Key == sdl.SCANCODE_T:
		e.cycleTexture()
	default:
		if t, ok := toolKeys[ev.Key]; ok && !ctrl {
			e.session.SetTool(t)
		}
	}
	if err != nil && !errors.Is(err, history.ErrEmpty) {
		e.log.Warn("command failed", zap.Error(err))
	}
	e.updateTitle()
}

// cycleTexture selects the next texture of the tile's table for painting.
func (e *Editor) cycleTexture() {
	names := e.tile.Textures()
	if len(names) == 0 {
		return
	}
	next := 0
	for i, n := range names {
		if n == e.session.Texture {
			next = (i + 1) % len(names)
		}
	}
	e.session.Texture = names[next]
}

func (e *Editor) openDialog() {
	go func() {
		path, err := dialog.File().
			Filter("Terrain tiles", "adt").
			Filter("All Files", "*").
			Title("Open terrain tile").
			Load()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				e.log.Error("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case e.pending <- path:
		default:
		}
	}()
}

func (e *Editor) screenshot() {
	w, h := e.renderer.Size()
	path, err := e.shots.CaptureFromPixels(e.renderer.ReadPixels(), w, h)
	if err != nil {
		e.log.Error("screenshot failed", zap.Error(err))
		return
	}
	e.log.Info("screenshot saved", zap.String("path", path))
}

func (e *Editor) viewProj() mgl32.Mat4 {
	return e.camera.ViewProj(e.renderer.Aspect())
}

func (e *Editor) visibleChunks() []*terrain.Chunk {
	var out []*terrain.Chunk
	e.tile.Each(func(c *terrain.Chunk) { out = append(out, c) })
	return out
}

// pickAt resolves the terrain position under window pixel (x, y). The pick
// pass is tried first; rays march the height field when it misses.
func (e *Editor) pickAt(x, y int) (mgl32.Vec3, bool) {
	vp := e.viewProj()
	if hit, ok := e.chunks.Pick(e.pickFB, e.visibleChunks(), vp, x, y); ok {
		pos, err := e.tile.PickPosition(e.names, hit.Name, hit.Tri)
		if err == nil {
			return pos, true
		}
		e.log.Debug("pick resolve failed", zap.Error(err))
	}

	w, h := e.renderer.Size()
	ray := picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h), vp.Inv())
	return picking.MarchTerrain(ray, e.tile, marchDistance, marchStep)
}

func (e *Editor) update(dt float32) {
	var forward, right, up float32
	if e.input.IsKeyDown(sdl.SCANCODE_UP) {
		forward++
	}
	if e.input.IsKeyDown(sdl.SCANCODE_DOWN) {
		forward--
	}
	if e.input.IsKeyDown(sdl.SCANCODE_RIGHT) {
		right++
	}
	if e.input.IsKeyDown(sdl.SCANCODE_LEFT) {
		right--
	}
	if e.input.IsKeyDown(sdl.SCANCODE_PAGEUP) {
		up++
	}
	if e.input.IsKeyDown(sdl.SCANCODE_PAGEDOWN) {
		up--
	}
	if forward != 0 || right != 0 || up != 0 {
		s := moveSpeed * dt
		e.camera.HandleMovement(forward*s, right*s, up*s)
	}

	if e.session == nil || !e.session.Stroking() {
		return
	}
	x, y := e.input.Mouse()
	pos, ok := e.pickAt(x, y)
	if !ok {
		return
	}
	if _, err := e.session.Apply(pos, dt); err != nil {
		e.log.Debug("brush failed", zap.Stringer("tool", e.session.Tool()), zap.Error(err))
	}
}

func (e *Editor) render() {
	e.renderer.Begin()
	if e.tile == nil {
		return
	}

	vp := e.viewProj()
	chunks := e.visibleChunks()

	p := scene.DefaultParams(vp, e.sun)
	p.Mode = e.mode
	p.AnimTime = int(time.Since(e.started).Milliseconds())
	p.DetailSize = e.cfg.Editor.DetailSize
	p.Contours = e.contours
	p.Eye = e.camera.Position()
	p.DrawDistance = e.cfg.Graphics.DrawDistance
	p.Areas = e.areas
	e.chunks.Draw(chunks, p)

	if e.outlines {
		e.chunks.DrawOutlines(chunks, vp, outlines)
	}
}

func (e *Editor) updateTitle() {
	if e.tile == nil {
		e.window.SetTitle(title)
		return
	}
	undo, redo := e.history.Len()
	s := fmt.Sprintf("%s - %s [%s r=%.1f", title, filepath.Base(e.path),
		e.session.Tool(), e.session.Brush().Radius())
	if e.session.Tool() == ToolPaint {
		s += " " + e.session.Texture
	}
	e.window.SetTitle(fmt.Sprintf("%s] undo %d redo %d", s, undo, redo))
}

// Close releases the tile, GPU resources and the window.
func (e *Editor) Close() {
	e.log.Info("closing editor")
	e.saveSettings()

	if e.tile != nil {
		e.tile.Close()
	}
	if e.history != nil {
		e.history.Close()
	}
	if e.files != nil {
		e.files.Close()
	}
	if e.pickFB != nil {
		e.pickFB.Destroy()
	}
	if e.chunks != nil {
		e.chunks.Destroy()
	}
	if e.window != nil {
		e.window.Close()
	}
}

// saveSettings writes the brush settings back to the config file.
func (e *Editor) saveSettings() {
	if e.session == nil {
		return
	}
	e.session.Store(&e.cfg.Editor, e.session.Brush())
	err := e.cfg.Update(func(c *config.Config) {
		e.session.Store(&c.Editor, e.session.Brush())
	})
	if err != nil {
		e.log.Warn("saving editor settings", zap.String("path", e.cfg.Path()), zap.Error(err))
		return
	}
	e.log.Debug("editor settings saved", zap.String("path", e.cfg.Path()))
}
