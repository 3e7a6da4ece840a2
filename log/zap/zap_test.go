package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/tierkv"
)

func TestForwardsLevelAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := ZapLogger{L: zap.New(core)}

	l.Warn("tierkv: cache tier failure", tierkv.Fields{"tier": "l1", "err": errors.New("down")})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries=%d want 1", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel {
		t.Fatalf("level=%v want warn", e.Level)
	}
	ctx := e.ContextMap()
	if ctx["tier"] != "l1" || ctx["err"] != "down" {
		t.Fatalf("fields=%v", ctx)
	}
}
