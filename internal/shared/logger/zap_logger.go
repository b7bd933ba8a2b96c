package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements the Logger interface on top of a sugared zap logger
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger creates a zap-backed logger writing to opts.Output
func NewZapLogger(opts Options) *ZapLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timestampFormat)

	var encoder zapcore.Encoder
	if strings.EqualFold(opts.Format, logFormatJSON) {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(textTimestamp)
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(opts.Output), zapLevel(opts.Level))
	return &ZapLogger{sugar: zap.New(core).Sugar()}
}

func zapLevel(level string) zapcore.Level {
	switch normalizeLevel(level) {
	case logLevelDebug:
		return zapcore.DebugLevel
	case logLevelWarn:
		return zapcore.WarnLevel
	case logLevelError:
		return zapcore.ErrorLevel
	case logLevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (z *ZapLogger) Debug(args ...interface{}) { z.sugar.Debug(args...) }
func (z *ZapLogger) Info(args ...interface{})  { z.sugar.Info(args...) }
func (z *ZapLogger) Warn(args ...interface{})  { z.sugar.Warn(args...) }
func (z *ZapLogger) Error(args ...interface{}) { z.sugar.Error(args...) }
func (z *ZapLogger) Fatal(args ...interface{}) { z.sugar.Fatal(args...) }

func (z *ZapLogger) Debugf(format string, args ...interface{}) { z.sugar.Debugf(format, args...) }
func (z *ZapLogger) Infof(format string, args ...interface{})  { z.sugar.Infof(format, args...) }
func (z *ZapLogger) Warnf(format string, args ...interface{})  { z.sugar.Warnf(format, args...) }
func (z *ZapLogger) Errorf(format string, args ...interface{}) { z.sugar.Errorf(format, args...) }
func (z *ZapLogger) Fatalf(format string, args ...interface{}) { z.sugar.Fatalf(format, args...) }

// WithFields adds structured fields to the logger
func (z *ZapLogger) WithFields(fields map[string]interface{}) Logger {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &ZapLogger{sugar: z.sugar.With(kv...)}
}

// WithContext adds the run scope stored in ctx to the logger
func (z *ZapLogger) WithContext(ctx context.Context) Logger {
	return z.WithFields(contextFields(ctx))
}

// WithComponent adds component name to the logger
func (z *ZapLogger) WithComponent(component string) Logger {
	return &ZapLogger{sugar: z.sugar.With("component", component)}
}

// Sync flushes buffered log entries
func (z *ZapLogger) Sync() error {
	return z.sugar.Sync()
}
