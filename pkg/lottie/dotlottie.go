package lottie

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/user/lottie2apng/pkg/pipeline"
)

var zipMagic = []byte("PK\x03\x04")

// IsDotLottie reports whether data looks like a dotLottie archive.
func IsDotLottie(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// Load parses either a Lottie JSON document or a dotLottie archive.
func Load(data []byte) (*Document, error) {
	if IsDotLottie(data) {
		return ParseDotLottie(data)
	}
	return Parse(data)
}

type dotLottieManifest struct {
	Animations []struct {
		ID string `json:"id"`
	} `json:"animations"`
}

// ParseDotLottie extracts the first animation of a dotLottie archive. The
// manifest decides which one is first; without a manifest the
// alphabetically first animations/*.json entry is used.
func ParseDotLottie(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "dotlottie", "open archive", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	var animations []string
	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "./")
		files[name] = f
		if dir, base := path.Split(name); dir == "animations/" && strings.HasSuffix(base, ".json") {
			animations = append(animations, name)
		}
	}
	sort.Strings(animations)

	target := ""
	if mf, ok := files["manifest.json"]; ok {
		raw, err := readZipFile(mf)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrValidation, "dotlottie", "read manifest", err)
		}
		var m dotLottieManifest
		if err := json.Unmarshal(raw, &m); err == nil && len(m.Animations) > 0 && m.Animations[0].ID != "" {
			target = "animations/" + m.Animations[0].ID + ".json"
		}
	}
	if _, ok := files[target]; !ok {
		if len(animations) == 0 {
			return nil, pipeline.Wrap(pipeline.ErrValidation, "dotlottie", "no animation in archive", nil)
		}
		target = animations[0]
	}

	raw, err := readZipFile(files[target])
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "dotlottie", fmt.Sprintf("read %s", target), err)
	}
	return Parse(raw)
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
