package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"chatty", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected nop logger when no level is configured")
	}
}

func TestLogFrameOnlyAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogFrame(DirectionOutgoing, []byte{0x55, 0x60, 0x01})
	if logs.Len() != 0 {
		t.Fatalf("expected no frame logs at info level, got %d", logs.Len())
	}

	core, logs = observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))

	LogFrame(DirectionIncoming, []byte{0x55, 0x60, 0x01})
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 frame log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["hex"] != "556001" {
		t.Errorf("hex = %v, want 556001", fields["hex"])
	}
	if fields["direction"] != DirectionIncoming {
		t.Errorf("direction = %v, want %s", fields["direction"], DirectionIncoming)
	}
}

func TestDumpsAreCapped(t *testing.T) {
	data := make([]byte, maxDumpBytes+10)
	for i := range data {
		data[i] = 'A'
	}

	if got := asciiDump(data); len(got) != maxDumpBytes {
		t.Errorf("asciiDump length = %d, want %d", len(got), maxDumpBytes)
	}
	if got := hexDump(data); len(got) != maxDumpBytes*2+3 {
		t.Errorf("hexDump length = %d, want %d", len(got), maxDumpBytes*2+3)
	}
	if got := asciiDump([]byte{0x00, 'x'}); got != ".x" {
		t.Errorf("asciiDump = %q, want %q", got, ".x")
	}
}
