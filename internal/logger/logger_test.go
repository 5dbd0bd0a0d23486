package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewForKnownEnvironments(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		log, err := New(env)
		if err != nil {
			t.Fatalf("Failed to create %s logger: %v", env, err)
		}
		if log == nil {
			t.Fatalf("%s logger should not be nil", env)
		}
		log.Sync()
	}
}

func TestNewWithDefaultsNeverNil(t *testing.T) {
	log := NewWithDefaults()
	if log == nil {
		t.Fatal("Default logger should not be nil")
	}
	log.Sync()
}

func TestLogEntriesAreStructuredJSON(t *testing.T) {
	var buf bytes.Buffer

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
		EncodeTime:  zapcore.ISO8601TimeEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(&buf),
		zapcore.DebugLevel,
	)

	log := zap.New(core)
	log.Info("payment session created", zap.Int64("user_id", 12345678))
	log.Sync()

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log entry is not valid JSON: %v", err)
	}
	if entry["message"] != "payment session created" {
		t.Errorf("Unexpected message: %v", entry["message"])
	}
	if entry["user_id"] != float64(12345678) {
		t.Errorf("Structured field missing: %v", entry["user_id"])
	}
	if _, ok := entry["level"]; !ok {
		t.Error("Log entry missing level")
	}
}
