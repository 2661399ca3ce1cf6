package orchestrator

import (
	"testing"

	"github.com/user/lottie2apng/pkg/pipeline"
)

func TestSuggestedFilename(t *testing.T) {
	tests := []struct {
		name      string
		inputName string
		docName   string
		scale     int
		quality   pipeline.Quality
		fps       float64
		want      string
	}{
		{"input stem wins", "loader", "Doc", 2, pipeline.QualityHigh, 30, "loader_2x_high_30fps.png"},
		{"document name", "", "Spinner", 1, pipeline.QualityLow, 12, "Spinner_1x_low_12fps.png"},
		{"fallback", "", "  ", 4, pipeline.QualityLossless, 60, "animation_4x_lossless_60fps.png"},
		{"rounded rate", "a", "", 1, pipeline.QualityMedium, 29.97, "a_1x_medium_30fps.png"},
		{"unsafe characters", "a/b:c", "", 1, pipeline.QualityHigh, 24, "a_b_c_1x_high_24fps.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestedFilename(tt.inputName, tt.docName, tt.scale, tt.quality, tt.fps)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
