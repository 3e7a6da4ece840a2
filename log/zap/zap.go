package zap

import (
	"go.uber.org/zap"

	"github.com/unkn0wn-root/tierkv"
)

var _ tierkv.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

func (z ZapLogger) Debug(msg string, f tierkv.Fields) { z.L.Debug(msg, tierkv.ZapFields(f)...) }
func (z ZapLogger) Info(msg string, f tierkv.Fields)  { z.L.Info(msg, tierkv.ZapFields(f)...) }
func (z ZapLogger) Warn(msg string, f tierkv.Fields)  { z.L.Warn(msg, tierkv.ZapFields(f)...) }
func (z ZapLogger) Error(msg string, f tierkv.Fields) { z.L.Error(msg, tierkv.ZapFields(f)...) }
