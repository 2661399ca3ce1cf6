package orchestrator

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/user/lottie2apng/pkg/pipeline"
)

// DefaultBaseName is used when neither the input nor the document has a name.
const DefaultBaseName = "animation"

// SuggestedFilename builds "<base>_<scale>x_<quality>_<fps>fps.png". The base
// is the input file stem, else the document name, else "animation"; fps is
// the effective rate rounded to an integer.
func SuggestedFilename(inputName, docName string, scale int, quality pipeline.Quality, fps float64) string {
	base := sanitizeBase(inputName)
	if base == "" {
		base = sanitizeBase(docName)
	}
	if base == "" {
		base = DefaultBaseName
	}
	return fmt.Sprintf("%s_%dx_%s_%dfps.png", base, scale, quality, int(math.Round(fps)))
}

func sanitizeBase(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}
