package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	if err := SetLevel("warn"); err != nil {
		t.Fatal(err)
	}

	Info("hidden")
	Warn("shown", "file", "crate.tex")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "crate.tex") {
		t.Errorf("warning with key/value should be logged: %q", out)
	}

	if err := SetLevel("chatty"); err == nil {
		t.Error("unknown level should fail")
	}
}
