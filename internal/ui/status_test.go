package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, Status{})
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPrintKeepsText(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, Error("Error: bad image"))
	if !strings.Contains(buf.String(), "Error: bad image") {
		t.Fatalf("rendered status lost its text: %q", buf.String())
	}
}

func TestKinds(t *testing.T) {
	if !Error("x").IsError() {
		t.Error("Error status should report IsError")
	}
	if Success("x").IsError() || Info("x").IsError() {
		t.Error("only error statuses report IsError")
	}
}

func TestTableContainsCells(t *testing.T) {
	out := Table([]string{"Label", "Size"}, [][]string{{"youtube_thumbnail", "1280x720"}})
	for _, want := range []string{"Label", "Size", "youtube_thumbnail", "1280x720"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
