package lottie

import (
	"encoding/json"
	"fmt"
)

// Layer types
const (
	LayerPrecomp = 0
	LayerSolid   = 1
	LayerImage   = 2
	LayerNull    = 3
	LayerShape   = 4
	LayerText    = 5
)

var layerTypeNames = map[int]string{
	LayerPrecomp: "precomp",
	LayerSolid:   "solid",
	LayerImage:   "image",
	LayerNull:    "null",
	LayerShape:   "shape",
	LayerText:    "text",
}

// Layer is one entry of a document's layer list.
type Layer struct {
	Type        int         `json:"ty"`
	Name        string      `json:"nm"`
	Index       *int        `json:"ind"`
	Parent      *int        `json:"parent"`
	InPoint     float64     `json:"ip"`
	OutPoint    float64     `json:"op"`
	StartTime   float64     `json:"st"`
	Stretch     float64     `json:"sr"`
	Hidden      bool        `json:"hd"`
	Transform   Transform   `json:"ks"`
	Shapes      []ShapeItem `json:"shapes"`
	SolidColor  string      `json:"sc"`
	SolidWidth  float64     `json:"sw"`
	SolidHeight float64     `json:"sh"`
	HasMask     bool        `json:"hasMask"`
	MatteMode   int         `json:"tt"`
}

// Visible reports whether the layer is drawn at the composition frame.
func (l *Layer) Visible(frame float64) bool {
	return !l.Hidden && frame >= l.InPoint && frame < l.OutPoint
}

// LocalFrame maps a composition frame to the layer's own timeline.
func (l *Layer) LocalFrame(frame float64) float64 {
	sr := l.Stretch
	if sr == 0 {
		sr = 1
	}
	return (frame - l.StartTime) / sr
}

// Drawable reports whether the vector renderer can draw this layer type.
func (l *Layer) Drawable() bool {
	return l.Type == LayerShape || l.Type == LayerSolid
}

func (l *Layer) unsupported() []string {
	var out []string
	if !l.Drawable() && l.Type != LayerNull {
		name, ok := layerTypeNames[l.Type]
		if !ok {
			name = "unknown"
		}
		out = append(out, fmt.Sprintf("%s layers", name))
	}
	if l.HasMask {
		out = append(out, "masks")
	}
	if l.MatteMode != 0 {
		out = append(out, "track mattes")
	}
	var walk func(items []ShapeItem)
	walk = func(items []ShapeItem) {
		for _, it := range items {
			if !it.Supported() {
				out = append(out, fmt.Sprintf("shape %q", it.Type))
			}
			walk(it.Items)
		}
	}
	walk(l.Shapes)
	return out
}

// Transform is a layer or group transform.
type Transform struct {
	Anchor   Property
	Position Property
	// Split position components, used when the document separates axes.
	PositionX Property
	PositionY Property
	Scale     Property
	Rotation  Property
	Opacity   Property
}

// UnmarshalJSON reads the a/p/s/r/o keys, including split positions.
func (t *Transform) UnmarshalJSON(b []byte) error {
	var raw struct {
		A  json.RawMessage `json:"a"`
		P  json.RawMessage `json:"p"`
		S  json.RawMessage `json:"s"`
		R  json.RawMessage `json:"r"`
		Rz json.RawMessage `json:"rz"`
		O  json.RawMessage `json:"o"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if err := unmarshalProperty(raw.A, &t.Anchor); err != nil {
		return fmt.Errorf("anchor: %w", err)
	}
	if len(raw.P) > 0 {
		var split struct {
			S bool            `json:"s"`
			X json.RawMessage `json:"x"`
			Y json.RawMessage `json:"y"`
		}
		if err := json.Unmarshal(raw.P, &split); err == nil && split.S {
			if err := unmarshalProperty(split.X, &t.PositionX); err != nil {
				return fmt.Errorf("position x: %w", err)
			}
			if err := unmarshalProperty(split.Y, &t.PositionY); err != nil {
				return fmt.Errorf("position y: %w", err)
			}
		} else if err := unmarshalProperty(raw.P, &t.Position); err != nil {
			return fmt.Errorf("position: %w", err)
		}
	}
	if err := unmarshalProperty(raw.S, &t.Scale); err != nil {
		return fmt.Errorf("scale: %w", err)
	}
	rot := raw.R
	if len(rot) == 0 {
		rot = raw.Rz
	}
	if err := unmarshalProperty(rot, &t.Rotation); err != nil {
		return fmt.Errorf("rotation: %w", err)
	}
	if err := unmarshalProperty(raw.O, &t.Opacity); err != nil {
		return fmt.Errorf("opacity: %w", err)
	}
	return nil
}

func unmarshalProperty(raw json.RawMessage, p *Property) error {
	if len(raw) == 0 || jsonKind(raw) == 'n' {
		return nil
	}
	return json.Unmarshal(raw, p)
}

// TransformValues is a transform evaluated at one frame.
type TransformValues struct {
	Anchor   [2]float64
	Position [2]float64
	Scale    [2]float64 // 1 = 100%
	Rotation float64    // degrees, clockwise
	Opacity  float64    // 0..1
}

// At evaluates the transform at frame.
func (t Transform) At(frame float64) TransformValues {
	pos := t.Position.Vec2(frame, [2]float64{})
	if t.PositionX.IsSet() || t.PositionY.IsSet() {
		pos = [2]float64{t.PositionX.Scalar(frame, 0), t.PositionY.Scalar(frame, 0)}
	}
	scale := t.Scale.Vec2(frame, [2]float64{100, 100})
	return TransformValues{
		Anchor:   t.Anchor.Vec2(frame, [2]float64{}),
		Position: pos,
		Scale:    [2]float64{scale[0] / 100, scale[1] / 100},
		Rotation: t.Rotation.Scalar(frame, 0),
		Opacity:  clamp01(t.Opacity.Scalar(frame, 100) / 100),
	}
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
