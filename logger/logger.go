package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Logger allows you to control logging with message levels and subsystem controls.
// The "Include" flags select which fields are included in each log message; the New*Config
//   constructors pick them.
// Subsystem log entries can be enabled per subsystem.
// For example the parent package can specify if they want to see logs from a subsystem and how
//   they want to see them.
//
// Sample Setup:
// // Create a development (JSON) log config that writes to main.log instead of stderr.
// logConfig := logger.NewConfig(true, false, "./tmp/main.log")
// logConfig.EnableSubSystem(spynode.SubSystem)
//
// // Attach the log config to the context.
// ctx := logger.ContextWithLogConfig(context.Background(), logConfig)
//

type Level int

const (
	LevelDebug   Level = -2
	LevelVerbose Level = -1
	LevelInfo    Level = 0
	LevelWarn    Level = 1
	LevelError   Level = 2
	LevelFatal   Level = 3 // Calls exit
	LevelPanic   Level = 4 // Calls panic
)

// Log entry formatting (which prefix fields to include)
const (
	IncludeDate   = 0x01 // date in the local time zone: 2018/01/01
	IncludeTime   = 0x02 // time in the local time zone: 06:54:32
	IncludeMicro  = 0x04 // microseconds .123123
	IncludeFile   = 0x08 // file name and line number
	IncludeSystem = 0x10 // system name
	IncludeLevel  = 0x20 // level of log entry
)

// Returns a context with the logging config attached.
func ContextWithLogConfig(ctx context.Context, config *Config) context.Context {
	return context.WithValue(ctx, configKey, config)
}

func ContextWithNoLogger(ctx context.Context) context.Context {
	return context.WithValue(ctx, configKey, emptyConfig)
}

// Returns a context with the logging subsystem attached.
func ContextWithLogSubSystem(ctx context.Context, subsystem string) context.Context {
	return context.WithValue(ctx, subSystemKey, subsystem)
}

// Returns a context with the logging subsystem cleared. Used when a context is passed back from a
//   subsystem.
func ContextWithOutLogSubSystem(ctx context.Context) context.Context {
	return context.WithValue(ctx, subSystemKey, nil)
}

// Returns a context with a trace attached. Entries logged with it carry the trace as a "trace"
//   field.
func ContextWithLogTrace(ctx context.Context, trace string) context.Context {
	return context.WithValue(ctx, traceKey, trace)
}

// Log an entry to the main Outputs if:
//   There is no subsystem specified or if the current subsystem is included in the attached
//     Config.IncludedSubSystems.
//   And the level is equal to or above the specified minimum logging level.
// Logs to the Config.SubSystems if the level is above minimum.
func Log(ctx context.Context, level Level, format string, values ...interface{}) error {
	return LogDepth(ctx, level, 1, format, values...)
}

// Debug adds a debug level entry to the log.
func Debug(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelDebug, 1, format, values...)
}

// Verbose adds a verbose level entry to the log.
func Verbose(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelVerbose, 1, format, values...)
}

// Info adds a info level entry to the log.
func Info(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelInfo, 1, format, values...)
}

// Warn adds a warn level entry to the log.
func Warn(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelWarn, 1, format, values...)
}

// Error adds a error level entry to the log.
func Error(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelError, 1, format, values...)
}

// Fatal adds a fatal level entry to the log and then calls os.Exit(1).
func Fatal(ctx context.Context, format string, values ...interface{}) error {
	LogDepth(ctx, LevelFatal, 1, format, values...)
	os.Exit(1)
	return nil
}

// Panic adds a panic level entry to the log and then calls panic().
func Panic(ctx context.Context, format string, values ...interface{}) error {
	LogDepth(ctx, LevelPanic, 1, format, values...)
	panic(fmt.Sprintf(format, values...))
}

func getTrace(ctx context.Context) string {
	traceValue := ctx.Value(traceKey)
	if traceValue == nil {
		return ""
	}

	trace, ok := traceValue.(string)
	if !ok {
		return ""
	}

	return trace
}

// Same as Log, but the number of levels above the current call in the stack from which to get the
//   file name/line of code can be specified as depth.
func LogDepth(ctx context.Context, level Level, depth int, format string, values ...interface{}) error {
	return LogDepthWithFields(ctx, level, depth+1, nil, format, values...)
}

// InfoWithFields adds an info level entry to the log, with structured fields attached in addition
//   to those already attached to ctx via ContextWithLogFields.
func InfoWithFields(ctx context.Context, fields []Field, format string, values ...interface{}) error {
	return LogDepthWithFields(ctx, LevelInfo, 1, fields, format, values...)
}

// LogDepthWithFields is LogDepth plus explicit structured fields, merged with any fields already
//   attached to ctx and the subsystem/trace fields LogDepth derives on its own.
func LogDepthWithFields(ctx context.Context, level Level, depth int, fields []Field, format string,
	values ...interface{}) error {

	configValue := ctx.Value(configKey)
	if configValue == nil {
		// Config not specified. Use default config.
		configValue = DefaultConfig
	}

	config, ok := configValue.(*Config)
	if !ok {
		return errors.New("Invalid Config Type")
	}

	if config == emptyConfig {
		return nil
	}

	all := mergeFields(contextFields(ctx), fields)
	if trace := getTrace(ctx); trace != "" {
		all = mergeFields(all, []Field{String("trace", trace)})
	}

	config.mutex.Lock()
	defer config.mutex.Unlock()

	subsystemValue := ctx.Value(subSystemKey)
	if subsystemValue != nil {
		subsystem, ok := subsystemValue.(string)
		if !ok {
			return errors.New("Invalid SubSystem Type")
		}

		subFields := append(append([]Field{}, all...), String("subsystem", subsystem))

		// Log to subsystem specific config
		if subConfig, exists := config.SubSystems[subsystem]; exists {
			if err := subConfig.writeEntry(level, depth+1, subFields, format, values...); err != nil {
				return err
			}
		}

		if include, exists := config.IncludedSubSystems[subsystem]; !exists || !include {
			return nil // Don't log to main config
		}

		return config.Main.writeEntry(level, depth+1, subFields, format, values...)
	}

	// Log to main config
	return config.Main.writeEntry(level, depth+1, all, format, values...)
}

// Keys for context key/pairs
type loggerkey int

const (
	configKey    loggerkey = 1
	subSystemKey loggerkey = 2
	traceKey     loggerkey = 3
	fieldsKey    loggerkey = 4
)

// NewConfig creates a new config of the given development/text mode, logging to filePath if
//   non-empty or stderr otherwise. A convenience constructor over the New*Config functions in
//   config.go for callers that pick the mode with booleans rather than a function name.
func NewConfig(isDevelopment, isText bool, filePath string) *Config {
	result := &Config{
		IncludedSubSystems: make(map[string]bool),
		SubSystems:         make(map[string]*systemConfig),
	}

	main, _ := newSystemConfig(isDevelopment, isText, filePath)
	result.Main = &main
	return result
}

// ContextWithLogger attaches a new Config built with NewConfig directly to ctx.
func ContextWithLogger(ctx context.Context, isDevelopment, isText bool, filePath string) context.Context {
	return ContextWithLogConfig(ctx, NewConfig(isDevelopment, isText, filePath))
}
