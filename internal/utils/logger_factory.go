package utils

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	unsupportedLogLevelTemplateConstant  = "unsupported log level %q"
	unsupportedLogFormatTemplateConstant = "unsupported log format %q"
)

// LogLevel identifies a supported logging verbosity.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat identifies a supported log encoding.
type LogFormat string

// Supported log formats.
const (
	LogFormatStructured LogFormat = "structured"
	LogFormatConsole    LogFormat = "console"
)

// LoggerOutputs bundles the diagnostic logger with the console event logger.
// The console logger only emits events when human-readable logging is active.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerFactory builds zap loggers for the configured level and format.
type LoggerFactory struct{}

// NewLoggerFactory constructs a LoggerFactory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLoggerOutputs builds logger outputs for the requested level and format.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLevel LogLevel, requestedFormat LogFormat) (LoggerOutputs, error) {
	zapLevel, levelError := resolveLogLevel(requestedLevel)
	if levelError != nil {
		return LoggerOutputs{}, levelError
	}

	var encoder zapcore.Encoder
	switch requestedFormat {
	case LogFormatStructured:
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case LogFormatConsole:
		consoleEncoderConfiguration := zap.NewDevelopmentEncoderConfig()
		consoleEncoderConfiguration.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(consoleEncoderConfiguration)
	default:
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatTemplateConstant, string(requestedFormat))
	}

	writeSyncer := zapcore.Lock(zapcore.AddSync(os.Stderr))
	diagnosticCore := zapcore.NewCore(encoder, writeSyncer, zapLevel)
	diagnosticLogger := zap.New(diagnosticCore)

	consoleLogger := zap.NewNop()
	if requestedFormat == LogFormatConsole {
		consoleEncoderConfiguration := zap.NewDevelopmentEncoderConfig()
		consoleEncoderConfiguration.TimeKey = ""
		consoleEncoderConfiguration.LevelKey = ""
		consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfiguration), writeSyncer, zapcore.InfoLevel)
		consoleLogger = zap.New(consoleCore)
	}

	return LoggerOutputs{DiagnosticLogger: diagnosticLogger, ConsoleLogger: consoleLogger}, nil
}

func resolveLogLevel(requestedLevel LogLevel) (zapcore.Level, error) {
	switch requestedLevel {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, string(requestedLevel))
	}
}
