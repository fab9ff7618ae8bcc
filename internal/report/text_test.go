package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func renderPlain(t *testing.T, r *Report, verbose bool) string {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	RenderText(&buf, r, verbose)
	return buf.String()
}

func TestRenderText_Summary(t *testing.T) {
	out := renderPlain(t, sampleReport(), false)

	for _, want := range []string{
		"✓ marketplace",
		"! alpha",
		"✗ beta",
		"✗ plugins/beta/skills/broken",
		"1 passed, 1 with warnings, 1 failed, 2 skills validated",
		"overall: fail",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderText_FixHints(t *testing.T) {
	out := renderPlain(t, sampleReport(), false)
	if !strings.Contains(out, `fix: add an SPDX identifier or "Proprietary"`) {
		t.Errorf("output missing fix hint:\n%s", out)
	}
}

func TestRenderText_VerboseShowsSubjectPath(t *testing.T) {
	quiet := renderPlain(t, sampleReport(), false)
	verbose := renderPlain(t, sampleReport(), true)

	if strings.Contains(quiet, "at: alpha") {
		t.Error("quiet output should not include subject paths")
	}
	if !strings.Contains(verbose, "at: alpha") {
		t.Errorf("verbose output missing subject path:\n%s", verbose)
	}
}
