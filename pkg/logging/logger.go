package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/DeBrosOfficial/filevault/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"

	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
	BrightWhite   = "\033[97m"
)

// ColoredLogger wraps zap.Logger with component-tagged, optionally colored output
type ColoredLogger struct {
	*zap.Logger
	enableColors bool
	structured   bool
}

// Component represents different parts of the system for color coding
type Component string

const (
	ComponentWallet   Component = "WALLET"
	ComponentSession  Component = "SESSION"
	ComponentContract Component = "CONTRACT"
	ComponentWorkflow Component = "WORKFLOW"
	ComponentHash     Component = "HASH"
	ComponentStorage  Component = "STORAGE"
	ComponentGateway  Component = "GATEWAY"
	ComponentCLI      Component = "CLI"
	ComponentGeneral  Component = "GENERAL"
)

func getComponentColor(component Component) string {
	switch component {
	case ComponentWallet:
		return BrightMagenta
	case ComponentSession:
		return BrightBlue
	case ComponentContract:
		return BrightCyan
	case ComponentWorkflow:
		return Green
	case ComponentHash:
		return Blue
	case ComponentStorage:
		return BrightYellow
	case ComponentGateway:
		return BrightGreen
	case ComponentCLI:
		return Cyan
	case ComponentGeneral:
		return Yellow
	default:
		return White
	}
}

func getLevelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return Gray
	case zapcore.InfoLevel:
		return BrightWhite
	case zapcore.WarnLevel:
		return BrightYellow
	case zapcore.ErrorLevel:
		return BrightRed
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return Red
	default:
		return White
	}
}

var levelLetters = map[zapcore.Level]string{
	zapcore.DebugLevel: "D",
	zapcore.InfoLevel:  "I",
	zapcore.WarnLevel:  "W",
	zapcore.ErrorLevel: "E",
}

// coloredConsoleEncoder creates the compact console encoder: HH:MM:SS, a
// single-letter level and the bare file name of the caller.
func coloredConsoleEncoder(enableColors bool) zapcore.Encoder {
	paint := func(color, s string) string {
		if !enableColors {
			return s
		}
		return color + s + Reset
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(paint(Dim, t.Format("15:04:05")))
	}
	cfg.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		letter, ok := levelLetters[level]
		if !ok {
			letter = "?"
		}
		enc.AppendString(paint(getLevelColor(level)+Bold, letter))
	}
	cfg.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := caller.File
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}
		enc.AppendString(paint(Dim, strings.TrimSuffix(file, ".go")))
	}

	return zapcore.NewConsoleEncoder(cfg)
}

func build(encoder zapcore.Encoder, out io.Writer, level zapcore.LevelEnabler) *zap.Logger {
	core := zapcore.NewCore(encoder, zapcore.AddSync(out), level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// New builds a logger from the logging section of the config. Console format
// uses the colored encoder (colors off when writing to a file or NoColor is set),
// json format uses zap's production encoder with the component as a field.
func New(cfg config.LoggingConfig) (*ColoredLogger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	var out io.Writer = os.Stderr
	if cfg.OutputFile != "" {
		file, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.OutputFile, err)
		}
		out = file
	}

	switch cfg.Format {
	case "json":
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return &ColoredLogger{
			Logger:     build(zapcore.NewJSONEncoder(encCfg), out, level),
			structured: true,
		}, nil
	case "", "console":
		colors := !cfg.NoColor && cfg.OutputFile == ""
		return &ColoredLogger{
			Logger:       build(coloredConsoleEncoder(colors), out, level),
			enableColors: colors,
		}, nil
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}
}

// NewColoredLogger creates a debug-level console logger on stderr
func NewColoredLogger(enableColors bool) *ColoredLogger {
	return NewWriterLogger(os.Stderr, enableColors)
}

// NewWriterLogger creates a debug-level console logger writing to w
func NewWriterLogger(w io.Writer, enableColors bool) *ColoredLogger {
	return &ColoredLogger{
		Logger:       build(coloredConsoleEncoder(enableColors), w, zapcore.DebugLevel),
		enableColors: enableColors,
	}
}

// NewNop returns a logger that discards everything
func NewNop() *ColoredLogger {
	return &ColoredLogger{Logger: zap.NewNop()}
}

func (l *ColoredLogger) tag(component Component, msg string, fields []zap.Field) (string, []zap.Field) {
	if l.structured {
		return msg, append(fields, zap.String("component", string(component)))
	}
	if l.enableColors {
		return fmt.Sprintf("%s[%s]%s %s", getComponentColor(component), component, Reset, msg), fields
	}
	return fmt.Sprintf("[%s] %s", component, msg), fields
}

// Component-specific logging methods
func (l *ColoredLogger) ComponentInfo(component Component, msg string, fields ...zap.Field) {
	msg, fields = l.tag(component, msg, fields)
	l.Info(msg, fields...)
}

func (l *ColoredLogger) ComponentWarn(component Component, msg string, fields ...zap.Field) {
	msg, fields = l.tag(component, msg, fields)
	l.Warn(msg, fields...)
}

func (l *ColoredLogger) ComponentError(component Component, msg string, fields ...zap.Field) {
	msg, fields = l.tag(component, msg, fields)
	l.Error(msg, fields...)
}

func (l *ColoredLogger) ComponentDebug(component Component, msg string, fields ...zap.Field) {
	msg, fields = l.tag(component, msg, fields)
	l.Debug(msg, fields...)
}

// StandardLogger adapts a ColoredLogger to Print-style interfaces such as
// chi's request logger and net/http's ErrorLog writer.
type StandardLogger struct {
	logger    *ColoredLogger
	component Component
}

// NewStandardLogger wraps logger for component
func NewStandardLogger(logger *ColoredLogger, component Component) *StandardLogger {
	return &StandardLogger{logger: logger, component: component}
}

// Printf implements the standard library log interface
func (s *StandardLogger) Printf(format string, v ...interface{}) {
	s.logger.ComponentInfo(s.component, strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"))
}

// Print implements the standard library log interface
func (s *StandardLogger) Print(v ...interface{}) {
	s.logger.ComponentInfo(s.component, strings.TrimSuffix(fmt.Sprint(v...), "\n"))
}

// Write lets a StandardLogger back a *log.Logger.
func (s *StandardLogger) Write(p []byte) (int, error) {
	s.logger.ComponentWarn(s.component, strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
