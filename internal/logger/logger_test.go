package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"bytevm/internal/logger"

	"github.com/charmbracelet/log"
)

func TestInitWriterLevels(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{"quiet", false, false},
		{"debug", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger.InitWriter(&buf, tt.debug, true)

			log.Debug("tracing")
			log.Warn("careful")

			out := buf.String()
			if got := strings.Contains(out, "tracing"); got != tt.wantDebug {
				t.Errorf("debug line present = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "careful") {
				t.Errorf("warning missing:\n%s", out)
			}
			if !strings.Contains(out, "BYTEVM") {
				t.Errorf("prefix missing:\n%s", out)
			}
			if strings.Contains(out, "\x1b[") {
				t.Errorf("no colour expected:\n%q", out)
			}
		})
	}
}
