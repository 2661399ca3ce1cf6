package lottie

import (
	"encoding/json"
	"math"
	"testing"
)

func mustProperty(t *testing.T, src string) Property {
	t.Helper()
	var p Property
	if err := json.Unmarshal([]byte(src), &p); err != nil {
		t.Fatalf("unmarshal %s: %v", src, err)
	}
	return p
}

func TestProperty_Static(t *testing.T) {
	p := mustProperty(t, `{"a":0,"k":42}`)
	if p.Animated() || !p.IsSet() {
		t.Errorf("Animated=%v IsSet=%v", p.Animated(), p.IsSet())
	}
	if got := p.Scalar(10, 0); got != 42 {
		t.Errorf("Scalar = %v", got)
	}
	if got := p.Vec2(0, [2]float64{}); got != [2]float64{42, 42} {
		t.Errorf("Vec2 = %v", got)
	}

	var unset Property
	if unset.Scalar(0, 7) != 7 {
		t.Error("unset property should return default")
	}
}

func TestProperty_Linear(t *testing.T) {
	p := mustProperty(t, `{"a":1,"k":[
		{"t":0,"s":[0,100],"o":{"x":[0],"y":[0]},"i":{"x":[1],"y":[1]}},
		{"t":10,"s":[100,0]}]}`)
	tests := []struct {
		frame float64
		want  [2]float64
	}{
		{-5, [2]float64{0, 100}},
		{0, [2]float64{0, 100}},
		{5, [2]float64{50, 50}},
		{10, [2]float64{100, 0}},
		{30, [2]float64{100, 0}},
	}
	for _, tt := range tests {
		got := p.Vec2(tt.frame, [2]float64{})
		if math.Abs(got[0]-tt.want[0]) > 1e-6 || math.Abs(got[1]-tt.want[1]) > 1e-6 {
			t.Errorf("Vec2(%v) = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

func TestProperty_Hold(t *testing.T) {
	p := mustProperty(t, `{"a":1,"k":[{"t":0,"s":[1],"h":1},{"t":10,"s":[2]}]}`)
	if got := p.Scalar(9.9, 0); got != 1 {
		t.Errorf("Scalar(9.9) = %v, want 1", got)
	}
	if got := p.Scalar(10, 0); got != 2 {
		t.Errorf("Scalar(10) = %v, want 2", got)
	}
}

func TestProperty_LegacyEndValues(t *testing.T) {
	p := mustProperty(t, `{"a":1,"k":[{"t":0,"s":[0],"e":[10]},{"t":10}]}`)
	if got := p.Scalar(5, -1); math.Abs(got-5) > 1e-6 {
		t.Errorf("Scalar(5) = %v, want 5", got)
	}
	if got := p.Scalar(20, -1); got != 10 {
		t.Errorf("Scalar(20) = %v, want 10", got)
	}
}

func TestProperty_Eased(t *testing.T) {
	// ease-in: slow start, so the midpoint lags linear interpolation.
	p := mustProperty(t, `{"a":1,"k":[
		{"t":0,"s":[0],"o":{"x":[0.42],"y":[0]},"i":{"x":[1],"y":[1]}},
		{"t":10,"s":[100]}]}`)
	mid := p.Scalar(5, 0)
	if mid >= 50 || mid <= 0 {
		t.Errorf("eased midpoint = %v, want in (0,50)", mid)
	}
	prev := -1.0
	for f := 0.0; f <= 10; f += 0.5 {
		v := p.Scalar(f, 0)
		if v < prev {
			t.Fatalf("not monotonic at %v: %v < %v", f, v, prev)
		}
		prev = v
	}
}

func TestBezierEase(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		t, want        float64
	}{
		{"linear", 0, 0, 1, 1, 0.3, 0.3},
		{"start", 0.42, 0, 0.58, 1, 0, 0},
		{"end", 0.42, 0, 0.58, 1, 1, 1},
		{"symmetric midpoint", 0.42, 0, 0.58, 1, 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bezierEase(tt.x1, tt.y1, tt.x2, tt.y2, tt.t)
			if math.Abs(got-tt.want) > 1e-4 {
				t.Errorf("bezierEase = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProperty_RejectsStrings(t *testing.T) {
	var p Property
	if err := json.Unmarshal([]byte(`{"a":0,"k":"nope"}`), &p); err == nil {
		t.Error("expected error for string value")
	}
}

func TestShapeProperty(t *testing.T) {
	var sp ShapeProperty
	src := `{"a":1,"k":[
		{"t":0,"s":[{"c":true,"v":[[0,0],[10,0],[10,10]],"i":[[0,0],[0,0],[0,0]],"o":[[0,0],[0,0],[0,0]]}]},
		{"t":10,"s":[{"c":true,"v":[[0,0],[20,0],[20,20]],"i":[[0,0],[0,0],[0,0]],"o":[[0,0],[0,0],[0,0]]}]}]}`
	if err := json.Unmarshal([]byte(src), &sp); err != nil {
		t.Fatal(err)
	}
	p := sp.At(5)
	if !p.Closed || len(p.Vertices) != 3 {
		t.Fatalf("path = %+v", p)
	}
	if p.Vertices[2] != [2]float64{15, 15} {
		t.Errorf("vertex = %v, want [15 15]", p.Vertices[2])
	}

	var static ShapeProperty
	if err := json.Unmarshal([]byte(`{"a":0,"k":{"c":false,"v":[[1,2],[3,4]]}}`), &static); err != nil {
		t.Fatal(err)
	}
	sp2 := static.At(0)
	if sp2.Closed || len(sp2.In) != 2 || sp2.Vertices[1] != [2]float64{3, 4} {
		t.Errorf("static path = %+v", sp2)
	}
}
