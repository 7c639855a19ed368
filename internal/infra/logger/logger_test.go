package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriter_Levels(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		wantDebug bool
	}{
		{name: "dev_logs_debug", env: "dev", wantDebug: true},
		{name: "prod_skips_debug", env: "prod", wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(tt.env, &buf)
			log.Debug("dbg")

			if got := buf.Len() > 0; got != tt.wantDebug {
				t.Fatalf("debug written = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestNewWithWriter_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("prod", &buf).Info("hello", "k", 1)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if rec["service"] != "odonto" {
		t.Errorf("expected service attr, got %v", rec["service"])
	}
	if rec["msg"] != "hello" {
		t.Errorf("expected msg hello, got %v", rec["msg"])
	}
}
