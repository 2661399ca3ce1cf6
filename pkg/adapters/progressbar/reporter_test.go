package progressbar

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestReporter_Renders(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Report(0, "capturing frames")
	r.Report(20, "capturing frames")
	r.Report(100, "finished")

	out := buf.String()
	if !strings.Contains(out, "finished") {
		t.Errorf("output missing final stage label: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("expected newline after completion")
	}

	n := buf.Len()
	r.Report(50, "late")
	if buf.Len() != n {
		t.Error("reports after completion should be ignored")
	}
}

func TestNewAuto_NotTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "progress")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	r := NewAuto(f)
	r.Report(50, "capturing frames")
	r.Report(100, "done")

	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("wrote %d bytes to a non-terminal", info.Size())
	}
}
