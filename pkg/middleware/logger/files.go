package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config locates log files. An empty Dir logs to stdout only.
type Config struct {
	Dir string
}

// NewLog builds a JSON logger that writes to stdout and, when dir is set, to
// a rotated file named n inside dir.
func NewLog(dir, n string) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.Lock(os.Stdout), zap.InfoLevel),
	}
	if dir != "" {
		_ = os.MkdirAll(dir, 0o755)
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(dir, n),
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, zap.InfoLevel))
	}
	return zap.New(zapcore.NewTee(cores...))
}
