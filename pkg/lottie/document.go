// Package lottie reads Lottie animation documents. It validates the
// envelope fields the frame pipeline depends on and models the subset of
// vector content the built-in renderer can draw.
package lottie

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/user/lottie2apng/pkg/pipeline"
)

// DefaultName is reported by Info for documents without a name.
const DefaultName = "Untitled"

// Document is a parsed Lottie animation.
type Document struct {
	Version   string
	FrameRate float64
	InPoint   float64
	OutPoint  float64
	Width     int // rounded from the document's w
	Height    int // rounded from the document's h
	Name      string
	Layers    []Layer

	// Unsupported lists features present in the document that the vector
	// renderer skips.
	Unsupported []string

	raw map[string]json.RawMessage
}

// Info summarises a document for display.
type Info struct {
	Version     string
	Width       int
	Height      int
	FrameRate   float64
	TotalFrames float64
	Duration    float64 // seconds
	Name        string
	Layers      int
}

// requiredFields are the envelope fields and whether each must be a string.
var requiredFields = []struct {
	key      string
	isString bool
}{
	{"v", true},
	{"fr", false},
	{"ip", false},
	{"op", false},
	{"w", false},
	{"h", false},
}

// Parse decodes and validates a Lottie JSON document. Envelope problems are
// reported as pipeline.ErrValidation; layers the model cannot read are
// skipped and listed in Unsupported.
func Parse(data []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "lottie", "parse", err)
	}
	if fields == nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "lottie", "document is not an object", nil)
	}

	for _, f := range requiredFields {
		raw, ok := fields[f.key]
		if !ok {
			return nil, pipeline.Wrap(pipeline.ErrValidation, "lottie", fmt.Sprintf("missing field %q", f.key), nil)
		}
		if kind := jsonKind(raw); (f.isString && kind != '"') || (!f.isString && kind != '0') {
			want := "number"
			if f.isString {
				want = "string"
			}
			return nil, pipeline.Wrap(pipeline.ErrValidation, "lottie", fmt.Sprintf("field %q must be a %s", f.key, want), nil)
		}
	}

	var env struct {
		V  string  `json:"v"`
		Fr float64 `json:"fr"`
		Ip float64 `json:"ip"`
		Op float64 `json:"op"`
		W  float64 `json:"w"`
		H  float64 `json:"h"`
		Nm string  `json:"nm"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "lottie", "parse", err)
	}

	doc := &Document{
		Version:   env.V,
		FrameRate: env.Fr,
		InPoint:   env.Ip,
		OutPoint:  env.Op,
		Width:     int(math.Round(env.W)),
		Height:    int(math.Round(env.H)),
		Name:      env.Nm,
		raw:       fields,
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}

	doc.parseLayers(fields["layers"])
	return doc, nil
}

func (d *Document) validate() error {
	switch {
	case d.FrameRate < 0 || math.IsNaN(d.FrameRate) || math.IsInf(d.FrameRate, 0):
		return pipeline.Wrap(pipeline.ErrValidation, "lottie", fmt.Sprintf("invalid frame rate %v", d.FrameRate), nil)
	case d.OutPoint <= d.InPoint:
		return pipeline.Wrap(pipeline.ErrValidation, "lottie", fmt.Sprintf("out point %v must be after in point %v", d.OutPoint, d.InPoint), nil)
	case d.Width <= 0 || d.Height <= 0:
		return pipeline.Wrap(pipeline.ErrValidation, "lottie", fmt.Sprintf("invalid size %dx%d", d.Width, d.Height), nil)
	}
	return nil
}

func (d *Document) parseLayers(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var layers []json.RawMessage
	if err := json.Unmarshal(raw, &layers); err != nil {
		d.addUnsupported("malformed layer list")
		return
	}
	for i, lr := range layers {
		var l Layer
		if err := json.Unmarshal(lr, &l); err != nil {
			d.addUnsupported(fmt.Sprintf("layer %d (%v)", i, err))
			continue
		}
		d.Layers = append(d.Layers, l)
		for _, u := range l.unsupported() {
			d.addUnsupported(u)
		}
	}
	if _, ok := d.raw["assets"]; ok && d.hasPrecomps() {
		d.addUnsupported("precomposition assets")
	}
	sort.Strings(d.Unsupported)
}

func (d *Document) hasPrecomps() bool {
	for _, l := range d.Layers {
		if l.Type == LayerPrecomp {
			return true
		}
	}
	return false
}

func (d *Document) addUnsupported(s string) {
	for _, u := range d.Unsupported {
		if u == s {
			return
		}
	}
	d.Unsupported = append(d.Unsupported, s)
}

// DisplayName returns the document name or DefaultName.
func (d *Document) DisplayName() string {
	if strings.TrimSpace(d.Name) == "" {
		return DefaultName
	}
	return d.Name
}

// Info returns display information about the document.
func (d *Document) Info() Info {
	total := d.OutPoint - d.InPoint
	duration := 0.0
	if d.FrameRate > 0 {
		duration = total / d.FrameRate
	}
	return Info{
		Version:     d.Version,
		Width:       d.Width,
		Height:      d.Height,
		FrameRate:   d.FrameRate,
		TotalFrames: total,
		Duration:    duration,
		Name:        d.DisplayName(),
		Layers:      len(d.Layers),
	}
}

// Meta converts the document to the pipeline's animation metadata.
func (d *Document) Meta() pipeline.AnimationMeta {
	return pipeline.AnimationMeta{
		FrameRate:  d.FrameRate,
		FirstFrame: d.InPoint,
		LastFrame:  d.OutPoint,
		Width:      d.Width,
		Height:     d.Height,
		Name:       d.Name,
	}
}

// JSON returns the document with w and h replaced by their rounded values,
// ready to hand to an external renderer.
func (d *Document) JSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.raw))
	for k, v := range d.raw {
		out[k] = v
	}
	out["w"] = json.RawMessage(fmt.Sprint(d.Width))
	out["h"] = json.RawMessage(fmt.Sprint(d.Height))
	return json.Marshal(out)
}

// LayerByIndex returns the layer whose ind equals index.
func (d *Document) LayerByIndex(index int) (*Layer, bool) {
	for i := range d.Layers {
		if d.Layers[i].Index != nil && *d.Layers[i].Index == index {
			return &d.Layers[i], true
		}
	}
	return nil, false
}

// ParentChain returns the ancestors of l, outermost first. Cycles and
// dangling parent references end the chain.
func (d *Document) ParentChain(l *Layer) []*Layer {
	var chain []*Layer
	seen := map[*Layer]bool{l: true}
	for cur := l; cur.Parent != nil; {
		p, ok := d.LayerByIndex(*cur.Parent)
		if !ok || seen[p] {
			break
		}
		seen[p] = true
		chain = append([]*Layer{p}, chain...)
		cur = p
	}
	return chain
}

// jsonKind classifies a raw JSON value: '"' string, '0' number, '{' object,
// '[' array, 'n' null, 'b' boolean.
func jsonKind(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	switch c := raw[0]; {
	case c == '"', c == '{', c == '[':
		return c
	case c == 'n':
		return 'n'
	case c == 't', c == 'f':
		return 'b'
	case c == '-' || (c >= '0' && c <= '9'):
		return '0'
	}
	return 0
}
