// Package editor runs the interactive terrain editor: a brush session over
// a loaded tile and the window loop that drives it.
package editor

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/brush"
	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/world"
)

// Tool is the active brush operation.
type Tool int

const (
	ToolRaise Tool = iota
	ToolLower
	ToolFlatten
	ToolBlur
	ToolPaint
	ToolHole
	ToolFill
	ToolArea
)

var toolNames = [...]string{"raise", "lower", "flatten", "blur", "paint", "hole", "fill", "area"}

func (t Tool) String() string {
	if t >= 0 && int(t) < len(toolNames) {
		return toolNames[t]
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// Settings are the brush parameters shared by all tools.
type Settings struct {
	Shape terrain.BrushShape
	// Speed is the raise/lower rate in height units per second.
	Speed float32
	// Remain is the share of the current height kept per flatten or blur
	// application.
	Remain   float32
	Strength float32
	Pressure float32
	Texture  string
	AreaID   uint32
}

// SettingsFromConfig builds settings from the editor section.
func SettingsFromConfig(cfg config.EditorConfig) (Settings, error) {
	shape, err := terrain.ParseBrushShape(cfg.BrushShape)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Shape:    shape,
		Speed:    20,
		Remain:   0.9,
		Strength: cfg.Strength,
		Pressure: cfg.Pressure,
	}, nil
}

// Store writes the settings and brush b back into an editor section.
// Fields the session does not own are left alone.
func (s Settings) Store(cfg *config.EditorConfig, b *brush.Brush) {
	cfg.BrushShape = s.Shape.String()
	cfg.Strength = s.Strength
	cfg.Pressure = s.Pressure
	if b != nil {
		cfg.BrushRadius = b.Radius()
		cfg.BrushHardness = b.Hardness()
	}
}

// Session applies the active tool to a tile. Each press-drag-release is
// one stroke and undoes as a single step.
type Session struct {
	Settings

	tile  *world.Tile
	brush *brush.Brush
	tool  Tool

	stroking  bool
	flattenTo float32

	log *zap.Logger
}

// NewSession creates a session over tile.
func NewSession(tile *world.Tile, b *brush.Brush, s Settings) *Session {
	return &Session{Settings: s, tile: tile, brush: b, log: logger.Named("editor")}
}

// Tool returns the active tool.
func (s *Session) Tool() Tool {
	return s.tool
}

// SetTool switches tools, ending any open stroke.
func (s *Session) SetTool(t Tool) {
	s.End()
	s.tool = t
	s.log.Debug("tool selected", zap.Stringer("tool", t))
}

// Brush returns the painting kernel, whose radius sizes every tool.
func (s *Session) Brush() *brush.Brush {
	return s.brush
}

// Stroking reports whether a stroke is open.
func (s *Session) Stroking() bool {
	return s.stroking
}

// Begin opens a stroke at pos. Flatten strokes level to the height under
// the initial position.
func (s *Session) Begin(pos mgl32.Vec3) {
	s.End()
	s.stroking = true
	s.flattenTo = pos.Y()
	if h, err := s.tile.HeightAt(pos.X(), pos.Z()); err == nil {
		s.flattenTo = h
	}
	s.tile.BeginStroke(s.tool.String())
}

// End closes the open stroke.
func (s *Session) End() {
	if !s.stroking {
		return
	}
	s.stroking = false
	s.tile.EndStroke()
}

// Apply runs the active tool at pos for a frame of dt seconds and returns
// the number of chunks changed.
func (s *Session) Apply(pos mgl32.Vec3, dt float32) (int, error) {
	x, z := pos.X(), pos.Z()
	r := s.brush.Radius()

	switch s.tool {
	case ToolRaise, ToolLower:
		change := s.Speed * dt
		if s.tool == ToolLower {
			change = -change
		}
		return s.tile.ChangeTerrain(x, z, change, r, s.Shape), nil
	case ToolFlatten:
		return s.tile.FlattenTerrain(x, z, s.flattenTo, s.Remain, r, s.Shape), nil
	case ToolBlur:
		return s.tile.BlurTerrain(x, z, s.Remain, r, s.Shape), nil
	case ToolPaint:
		if s.Texture == "" {
			return 0, fmt.Errorf("no texture selected")
		}
		return s.tile.Paint(x, z, s.brush, s.Strength, s.Pressure, s.Texture)
	case ToolHole, ToolFill:
		if err := s.tile.SetHole(x, z, s.tool == ToolHole); err != nil {
			return 0, err
		}
		return 1, nil
	case ToolArea:
		if err := s.tile.SetAreaID(x, z, s.AreaID); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return 0, fmt.Errorf("unknown tool %v", s.tool)
}
