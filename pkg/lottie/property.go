package lottie

import (
	"encoding/json"
	"fmt"
	"math"
)

// Keyframe is one key of an animated property. The easing handles describe
// the segment from this key to the next one.
type Keyframe struct {
	Time  float64
	Start []float64
	End   []float64 // explicit end value written by older exporters
	Hold  bool

	OutX, OutY float64
	InX, InY   float64
}

// Property is a static or keyframed numeric value.
type Property struct {
	Static    []float64
	Keyframes []Keyframe
	set       bool
}

// IsSet reports whether the property was present in the document.
func (p Property) IsSet() bool {
	return p.set
}

// Animated reports whether the property has keyframes.
func (p Property) Animated() bool {
	return len(p.Keyframes) > 0
}

// UnmarshalJSON accepts {"a":0,"k":value} and {"a":1,"k":[keyframes]}
// as well as keyframe lists without the "a" flag.
func (p *Property) UnmarshalJSON(b []byte) error {
	var raw struct {
		K json.RawMessage `json:"k"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.set = true
	if len(raw.K) == 0 {
		return nil
	}

	switch jsonKind(raw.K) {
	case '0':
		var v float64
		if err := json.Unmarshal(raw.K, &v); err != nil {
			return err
		}
		p.Static = []float64{v}
		return nil
	case '[':
	default:
		return fmt.Errorf("unsupported property value %s", truncate(raw.K))
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw.K, &items); err != nil {
		return err
	}
	if len(items) > 0 && jsonKind(items[0]) == '{' {
		kfs, err := parseKeyframes(items)
		if err != nil {
			return err
		}
		p.Keyframes = kfs
		return nil
	}
	return json.Unmarshal(raw.K, &p.Static)
}

type rawKeyframe struct {
	T float64         `json:"t"`
	S json.RawMessage `json:"s"`
	E json.RawMessage `json:"e"`
	H int             `json:"h"`
	I *rawHandle      `json:"i"`
	O *rawHandle      `json:"o"`
}

type rawHandle struct {
	X json.RawMessage `json:"x"`
	Y json.RawMessage `json:"y"`
}

func parseKeyframes(items []json.RawMessage) ([]Keyframe, error) {
	kfs := make([]Keyframe, 0, len(items))
	for _, it := range items {
		var rk rawKeyframe
		if err := json.Unmarshal(it, &rk); err != nil {
			return nil, err
		}
		kf := Keyframe{Time: rk.T, Hold: rk.H == 1, InX: 1, InY: 1}
		var err error
		if kf.Start, err = numbers(rk.S); err != nil {
			return nil, err
		}
		if kf.End, err = numbers(rk.E); err != nil {
			return nil, err
		}
		if rk.O != nil {
			kf.OutX, kf.OutY = firstNumber(rk.O.X, 0), firstNumber(rk.O.Y, 0)
		}
		if rk.I != nil {
			kf.InX, kf.InY = firstNumber(rk.I.X, 1), firstNumber(rk.I.Y, 1)
		}
		kfs = append(kfs, kf)
	}
	return kfs, nil
}

// numbers decodes a number or an array of numbers. Absent values are nil.
func numbers(raw json.RawMessage) ([]float64, error) {
	switch jsonKind(raw) {
	case 0, 'n':
		return nil, nil
	case '0':
		var v float64
		err := json.Unmarshal(raw, &v)
		return []float64{v}, err
	default:
		var vs []float64
		err := json.Unmarshal(raw, &vs)
		return vs, err
	}
}

func firstNumber(raw json.RawMessage, def float64) float64 {
	vs, err := numbers(raw)
	if err != nil || len(vs) == 0 {
		return def
	}
	return vs[0]
}

func truncate(b []byte) string {
	if len(b) > 32 {
		return string(b[:32]) + "..."
	}
	return string(b)
}

// At evaluates the property at frame.
func (p Property) At(frame float64) []float64 {
	kfs := p.Keyframes
	if len(kfs) == 0 {
		return p.Static
	}
	if frame <= kfs[0].Time {
		return kfs[0].Start
	}
	for i := 0; i < len(kfs)-1; i++ {
		a, b := kfs[i], kfs[i+1]
		if frame >= b.Time {
			continue
		}
		end := a.End
		if end == nil {
			end = b.Start
		}
		if a.Hold || end == nil || b.Time <= a.Time {
			return a.Start
		}
		t := (frame - a.Time) / (b.Time - a.Time)
		return lerp(a.Start, end, bezierEase(a.OutX, a.OutY, a.InX, a.InY, t))
	}
	last := kfs[len(kfs)-1]
	if last.Start != nil {
		return last.Start
	}
	// Legacy lists end with a bare time; the previous key carries the value.
	if n := len(kfs); n >= 2 {
		if prev := kfs[n-2]; prev.End != nil && !prev.Hold {
			return prev.End
		}
		return kfs[n-2].Start
	}
	return nil
}

// Scalar evaluates the first component at frame, or def when unset.
func (p Property) Scalar(frame, def float64) float64 {
	v := p.At(frame)
	if len(v) == 0 {
		return def
	}
	return v[0]
}

// Vec2 evaluates the first two components at frame. A single component is
// used for both axes.
func (p Property) Vec2(frame float64, def [2]float64) [2]float64 {
	v := p.At(frame)
	switch len(v) {
	case 0:
		return def
	case 1:
		return [2]float64{v[0], v[0]}
	default:
		return [2]float64{v[0], v[1]}
	}
}

func lerp(a, b []float64, t float64) []float64 {
	n := min(len(a), len(b))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	return out
}

// bezierEase maps linear progress t through the cubic bezier
// (0,0) (x1,y1) (x2,y2) (1,1).
func bezierEase(x1, y1, x2, y2, t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	if x1 == y1 && x2 == y2 {
		return t
	}
	x1 = math.Max(0, math.Min(1, x1))
	x2 = math.Max(0, math.Min(1, x2))

	bez := func(p1, p2, u float64) float64 {
		v := 1 - u
		return 3*v*v*u*p1 + 3*v*u*u*p2 + u*u*u
	}
	slope := func(p1, p2, u float64) float64 {
		v := 1 - u
		return 3*v*v*p1 + 6*v*u*(p2-p1) + 3*u*u*(1-p2)
	}

	u := t
	for i := 0; i < 8; i++ {
		d := slope(x1, x2, u)
		if math.Abs(d) < 1e-6 {
			break
		}
		x := bez(x1, x2, u) - t
		if math.Abs(x) < 1e-7 {
			return bez(y1, y2, u)
		}
		u -= x / d
	}

	lo, hi := 0.0, 1.0
	u = t
	for i := 0; i < 40; i++ {
		x := bez(x1, x2, u)
		if math.Abs(x-t) < 1e-7 {
			break
		}
		if x < t {
			lo = u
		} else {
			hi = u
		}
		u = (lo + hi) / 2
	}
	return bez(y1, y2, u)
}
