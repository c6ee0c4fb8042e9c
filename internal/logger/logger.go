package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var zapLogger *zap.Logger
var Log = zap.NewNop().Sugar()

// InitLogger builds the process-wide JSON logger at the level named by LOG_LEVEL.
func InitLogger() (*zap.SugaredLogger, error) {
	return InitLoggerWithLevel(GetZapLevelFromEnv())
}

// InitLoggerWithLevel builds the process-wide JSON logger at an explicit level.
// The first call wins; later calls return the existing logger.
func InitLoggerWithLevel(level zapcore.Level) (*zap.SugaredLogger, error) {
	if zapLogger != nil {
		Log = zapLogger.Sugar()
		return Log, nil
	}
	zapLogger = New(os.Stdout, level)
	Log = zapLogger.Sugar()
	return Log, nil
}

// New returns a JSON logger writing to w. Timestamps are ISO8601 under "ts".
func New(w io.Writer, level zapcore.Level) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.LevelKey = "level"
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}

// Named returns a child of the process logger tagged with a component name.
func Named(component string) *zap.SugaredLogger {
	return Log.With("component", component)
}

func GetZapLevelFromEnv() zapcore.Level {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel // fallback
	}
}

// SyncLogger ensures the logger is properly synced
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
