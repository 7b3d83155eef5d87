// Package tracelog is Hydra's optional debug trace sink, modeled on the
// corpus's global-logger idiom: a package-level instance, a level gate,
// and a handful of per-subsystem enable flags so a caller can turn on
// exactly the trace detail it wants without recompiling.
package tracelog

import (
	"fmt"
	"io"
	"os"
	"time"
)

// LogLevel orders Hydra's trace verbosity, coarsest first.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
	LevelTrace
)

// Logger writes level- and subsystem-gated trace lines to a sink.
type Logger struct {
	level         LogLevel
	writer        io.Writer
	hydraEnabled  bool
	mapperEnabled bool
}

var global *Logger

// Initialize installs the package-level logger. A zero filename logs to
// stdout. Hydra's own tracker output is enabled by default; the address
// mapper's is opt-in, matching how noisy it is per activation.
func Initialize(level LogLevel, filename string) error {
	var w io.Writer = os.Stdout
	if filename != "" {
		f, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("tracelog: create %s: %w", filename, err)
		}
		w = f
	}
	global = &Logger{level: level, writer: w, hydraEnabled: true}
	return nil
}

// SetHydraLogging toggles tracker-subsystem trace lines (activations,
// table transitions, VRR emissions).
func SetHydraLogging(enabled bool) {
	if global != nil {
		global.hydraEnabled = enabled
	}
}

// SetMapperLogging toggles address-decomposition trace lines.
func SetMapperLogging(enabled bool) {
	if global != nil {
		global.mapperEnabled = enabled
	}
}

// LogHydra logs a tracker-subsystem line at Debug.
func LogHydra(format string, args ...any) {
	if global != nil && global.hydraEnabled && global.level >= LevelDebug {
		emit(global, "HYDRA", format, args...)
	}
}

// LogHydraTrace logs a tracker-subsystem line at Trace — finer detail
// than LogHydra, for per-branch decisions inside Update.
func LogHydraTrace(format string, args ...any) {
	if global != nil && global.hydraEnabled && global.level >= LevelTrace {
		emit(global, "HYDRA", format, args...)
	}
}

// LogMapper logs an address-decomposition line at Debug.
func LogMapper(format string, args ...any) {
	if global != nil && global.mapperEnabled && global.level >= LevelDebug {
		emit(global, "MAPPER", format, args...)
	}
}

// LogInfo logs unconditionally above Off, regardless of subsystem flags.
func LogInfo(format string, args ...any) {
	if global != nil && global.level >= LevelInfo {
		emit(global, "INFO", format, args...)
	}
}

// LogError logs at every level above Off, regardless of subsystem flags.
func LogError(format string, args ...any) {
	if global != nil && global.level >= LevelError {
		emit(global, "ERROR", format, args...)
	}
}

func emit(l *Logger, tag, format string, args ...any) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.writer, "[%s] %s: %s\n", ts, tag, fmt.Sprintf(format, args...))
}

// LevelFromString parses a config-file level name, defaulting to Info on
// an unrecognized value.
func LevelFromString(s string) LogLevel {
	switch s {
	case "off":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "trace":
		return LevelTrace
	default:
		return LevelInfo
	}
}

// Close releases the underlying file, if the logger opened one.
func Close() {
	if global == nil {
		return
	}
	if f, ok := global.writer.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		f.Close()
	}
}
