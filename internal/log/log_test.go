package log_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/marrow-systems/r3000/internal/log"
)

func TestHandlerWritesFieldsAsKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer

	logger := log.NewFormattedLogger(&buf)
	logger.Info("stepped", "pc", "0xbfc00000", "status", "Running")

	out := buf.String()

	for _, want := range []string{"stepped", "PC=0xbfc00000", "STATUS=Running"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestWithAttrsAppliesToEveryRecord(t *testing.T) {
	var buf bytes.Buffer

	logger := log.NewFormattedLogger(&buf).With("component", "cpu")
	logger.Info("first")
	logger.Info("second")

	out := buf.String()

	if strings.Count(out, "COMPONENT=cpu") != 2 {
		t.Errorf("output %q: want COMPONENT=cpu on both lines", out)
	}
}
