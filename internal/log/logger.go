package log

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

// Init builds the process logger: JSON in production, console otherwise.
func Init(production bool) (*zap.Logger, error) {
	var cfg zap.Config
	if production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}
	l = l.With(zap.String("service", "auth-gateway"))
	global.Store(l)
	return l, nil
}

// L returns the process logger, or a no-op logger before Init.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

func Infof(format string, args ...any)  { L().Sugar().Infof(format, args...) }
func Errorf(format string, args ...any) { L().Sugar().Errorf(format, args...) }
