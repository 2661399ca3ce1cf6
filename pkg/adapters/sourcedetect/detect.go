// Package sourcedetect identifies an input and opens the raster source
// that can render it.
package sourcedetect

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/lottie2apng/pkg/adapters/chromesource"
	"github.com/user/lottie2apng/pkg/adapters/sequencesource"
	"github.com/user/lottie2apng/pkg/adapters/vectorsource"
	"github.com/user/lottie2apng/pkg/lottie"
	"github.com/user/lottie2apng/pkg/pipeline"
	"github.com/user/lottie2apng/pkg/ports"
)

// Kind is the detected input format.
type Kind string

const (
	KindLottie    Kind = "lottie"
	KindDotLottie Kind = "dotlottie"
	KindSequence  Kind = "sequence"
	KindUnknown   Kind = "unknown"
)

// Renderer selects the raster source for Lottie documents.
type Renderer string

const (
	RendererAuto   Renderer = "auto"
	RendererVector Renderer = "vector"
	RendererChrome Renderer = "chrome"
)

// ParseRenderer parses a renderer name; "" means auto.
func ParseRenderer(s string) (Renderer, error) {
	switch r := Renderer(strings.ToLower(strings.TrimSpace(s))); r {
	case "", RendererAuto:
		return RendererAuto, nil
	case RendererVector, RendererChrome:
		return r, nil
	}
	return "", pipeline.Wrap(pipeline.ErrConfiguration, "source", fmt.Sprintf("unknown renderer %q", s), nil)
}

// ResolveRenderer turns auto into chrome when a browser resolves, else
// vector.
func ResolveRenderer(r Renderer, chromePath string) Renderer {
	if r != RendererAuto {
		return r
	}
	if chromesource.Available(chromePath) {
		return RendererChrome
	}
	return RendererVector
}

// DetectFromBytes classifies file contents.
func DetectFromBytes(data []byte) Kind {
	if lottie.IsDotLottie(data) {
		return KindDotLottie
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return KindLottie
	}
	return KindUnknown
}

// Options configures source selection.
type Options struct {
	Renderer    Renderer
	Chrome      chromesource.Options
	SequenceFPS float64 // frame rate for PNG sequences
}

// Input is an opened input ready for the orchestrator.
type Input struct {
	Kind     Kind
	Name     string // input file stem, "" for in-memory documents
	Meta     pipeline.AnimationMeta
	Document *lottie.Document // nil for sequences
	Renderer Renderer         // resolved; empty for sequences
	Factory  ports.RasterSourceFactory
}

// Open detects the input at path and prepares its raster source factory.
// Unreadable or malformed inputs are reported as validation errors.
func Open(fs ports.FileSystem, path string, opts Options, logger ports.Logger) (*Input, error) {
	isDir, err := fs.IsDir(path)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "source", "stat input", err)
	}
	if isDir {
		seq, err := sequencesource.Probe(fs, path, opts.SequenceFPS)
		if err != nil {
			return nil, err
		}
		return &Input{
			Kind:    KindSequence,
			Name:    filepath.Base(filepath.Clean(path)),
			Meta:    seq.Meta(),
			Factory: sequencesource.New(seq, fs, logger),
		}, nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "source", "read input", err)
	}
	in, err := FromBytes(data, opts, logger)
	if err != nil {
		return nil, err
	}
	in.Name = stem(path)
	return in, nil
}

// FromBytes prepares a Lottie JSON or dotLottie payload.
func FromBytes(data []byte, opts Options, logger ports.Logger) (*Input, error) {
	kind := DetectFromBytes(data)
	if kind == KindUnknown {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "source", "input is neither Lottie JSON nor dotLottie", nil)
	}
	doc, err := lottie.Load(data)
	if err != nil {
		return nil, err
	}
	in := FromDocument(doc, opts, logger)
	in.Kind = kind
	return in, nil
}

// FromDocument prepares an already parsed document.
func FromDocument(doc *lottie.Document, opts Options, logger ports.Logger) *Input {
	renderer := ResolveRenderer(opts.Renderer, opts.Chrome.ChromePath)
	in := &Input{Kind: KindLottie, Meta: doc.Meta(), Document: doc, Renderer: renderer}
	if renderer == RendererChrome {
		in.Factory = chromesource.New(doc, opts.Chrome, logger)
	} else {
		in.Factory = vectorsource.New(doc, logger)
	}
	return in
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
