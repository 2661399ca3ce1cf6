package lottie

import (
	"encoding/json"
	"fmt"
)

// Shape item types the vector renderer draws.
const (
	ShapeGroup     = "gr"
	ShapeRect      = "rc"
	ShapeEllipse   = "el"
	ShapePath      = "sh"
	ShapeFill      = "fl"
	ShapeStroke    = "st"
	ShapeTransform = "tr"
)

// Fill rules
const (
	FillRuleNonZero = 1
	FillRuleEvenOdd = 2
)

// ShapeItem is one entry of a shape layer or group. Only the fields for
// its Type are populated.
type ShapeItem struct {
	Type   string
	Name   string
	Hidden bool

	Items []ShapeItem // gr

	Position  Property // rc, el
	Size      Property // rc, el
	Roundness Property // rc

	Path ShapeProperty // sh

	Color    Property // fl, st
	Opacity  Property // fl, st
	Width    Property // st
	FillRule int      // fl

	Transform Transform // tr
}

// Supported reports whether the renderer understands this item.
func (s ShapeItem) Supported() bool {
	switch s.Type {
	case ShapeGroup, ShapeRect, ShapeEllipse, ShapePath, ShapeFill, ShapeStroke, ShapeTransform:
		return true
	}
	return false
}

// IsGeometry reports whether the item contributes path geometry.
func (s ShapeItem) IsGeometry() bool {
	return s.Type == ShapeRect || s.Type == ShapeEllipse || s.Type == ShapePath
}

// IsPaint reports whether the item paints geometry.
func (s ShapeItem) IsPaint() bool {
	return s.Type == ShapeFill || s.Type == ShapeStroke
}

// UnmarshalJSON dispatches on the item type; keys such as "r" mean
// different things for different types.
func (s *ShapeItem) UnmarshalJSON(b []byte) error {
	var head struct {
		Type   string `json:"ty"`
		Name   string `json:"nm"`
		Hidden bool   `json:"hd"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	s.Type, s.Name, s.Hidden = head.Type, head.Name, head.Hidden

	var err error
	switch s.Type {
	case ShapeGroup:
		var g struct {
			Items []ShapeItem `json:"it"`
		}
		err = json.Unmarshal(b, &g)
		s.Items = g.Items
	case ShapeRect, ShapeEllipse:
		var r struct {
			P Property `json:"p"`
			S Property `json:"s"`
			R Property `json:"r"`
		}
		err = json.Unmarshal(b, &r)
		s.Position, s.Size, s.Roundness = r.P, r.S, r.R
	case ShapePath:
		var p struct {
			Ks ShapeProperty `json:"ks"`
		}
		err = json.Unmarshal(b, &p)
		s.Path = p.Ks
	case ShapeFill:
		var f struct {
			C Property `json:"c"`
			O Property `json:"o"`
			R int      `json:"r"`
		}
		err = json.Unmarshal(b, &f)
		s.Color, s.Opacity, s.FillRule = f.C, f.O, f.R
	case ShapeStroke:
		var st struct {
			C Property `json:"c"`
			O Property `json:"o"`
			W Property `json:"w"`
		}
		err = json.Unmarshal(b, &st)
		s.Color, s.Opacity, s.Width = st.C, st.O, st.W
	case ShapeTransform:
		err = json.Unmarshal(b, &s.Transform)
	}
	if err != nil {
		return fmt.Errorf("shape %q: %w", s.Type, err)
	}
	return nil
}

// PathData is a bezier path with vertices and tangents relative to them.
type PathData struct {
	Closed   bool
	Vertices [][2]float64
	In       [][2]float64
	Out      [][2]float64
}

type rawPath struct {
	C bool         `json:"c"`
	V [][2]float64 `json:"v"`
	I [][2]float64 `json:"i"`
	O [][2]float64 `json:"o"`
}

func (r rawPath) path() PathData {
	n := len(r.V)
	p := PathData{Closed: r.C, Vertices: r.V, In: make([][2]float64, n), Out: make([][2]float64, n)}
	copy(p.In, r.I)
	copy(p.Out, r.O)
	return p
}

// flatten packs vertices and tangents into one vector for interpolation.
func (p PathData) flatten() []float64 {
	out := make([]float64, 0, len(p.Vertices)*6)
	for i := range p.Vertices {
		out = append(out, p.Vertices[i][0], p.Vertices[i][1], p.In[i][0], p.In[i][1], p.Out[i][0], p.Out[i][1])
	}
	return out
}

func unflatten(v []float64, closed bool) PathData {
	n := len(v) / 6
	p := PathData{Closed: closed, Vertices: make([][2]float64, n), In: make([][2]float64, n), Out: make([][2]float64, n)}
	for i := 0; i < n; i++ {
		o := i * 6
		p.Vertices[i] = [2]float64{v[o], v[o+1]}
		p.In[i] = [2]float64{v[o+2], v[o+3]}
		p.Out[i] = [2]float64{v[o+4], v[o+5]}
	}
	return p
}

// ShapeProperty is a static or keyframed path. Keyframed paths interpolate
// vertex by vertex, so keys must share a vertex count.
type ShapeProperty struct {
	values Property
	closed bool
}

// UnmarshalJSON accepts a static path object or a keyframe list whose
// values are single-element path arrays.
func (sp *ShapeProperty) UnmarshalJSON(b []byte) error {
	var raw struct {
		K json.RawMessage `json:"k"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	sp.values.set = true

	switch jsonKind(raw.K) {
	case '{':
		var rp rawPath
		if err := json.Unmarshal(raw.K, &rp); err != nil {
			return err
		}
		p := rp.path()
		sp.closed = p.Closed
		sp.values.Static = p.flatten()
		return nil
	case '[':
	default:
		return fmt.Errorf("unsupported path value %s", truncate(raw.K))
	}

	var items []struct {
		T float64    `json:"t"`
		S []rawPath  `json:"s"`
		E []rawPath  `json:"e"`
		H int        `json:"h"`
		I *rawHandle `json:"i"`
		O *rawHandle `json:"o"`
	}
	if err := json.Unmarshal(raw.K, &items); err != nil {
		return err
	}
	for i, it := range items {
		kf := Keyframe{Time: it.T, Hold: it.H == 1, InX: 1, InY: 1}
		if len(it.S) > 0 {
			p := it.S[0].path()
			kf.Start = p.flatten()
			if i == 0 {
				sp.closed = p.Closed
			}
		}
		if len(it.E) > 0 {
			kf.End = it.E[0].path().flatten()
		}
		if it.O != nil {
			kf.OutX, kf.OutY = firstNumber(it.O.X, 0), firstNumber(it.O.Y, 0)
		}
		if it.I != nil {
			kf.InX, kf.InY = firstNumber(it.I.X, 1), firstNumber(it.I.Y, 1)
		}
		sp.values.Keyframes = append(sp.values.Keyframes, kf)
	}
	return nil
}

// At evaluates the path at frame.
func (sp ShapeProperty) At(frame float64) PathData {
	return unflatten(sp.values.At(frame), sp.closed)
}
