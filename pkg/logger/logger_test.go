package logger

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
)

// mockLogLevel is a valid zapcore.Level value for testing.
const mockLogLevel int8 = 0 // zapcore.InfoLevel

func TestGetReturnsLoggerInstance(t *testing.T) {
	logger := Get(mockLogLevel)
	if logger == nil {
		t.Fatal("Get should return a non-nil logger")
	}
}

func TestGetReturnsSameInstanceOnSubsequentCalls(t *testing.T) {
	logger1 := Get(mockLogLevel)
	logger2 := Get(mockLogLevel)
	if logger1 != logger2 {
		t.Error("Get should return the same logger instance on subsequent calls")
	}
}

func TestGetAppliesLevelOnEveryCall(t *testing.T) {
	defer Get(mockLogLevel)

	Get(Level(false, 0))
	if globalZapLogger == nil {
		t.Fatal("Get should build the zap logger")
	}
	if globalZapLogger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be disabled at info level")
	}

	Get(Level(true, 0))
	if !globalZapLogger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("a later Get with --debug should enable debug")
	}

	Get(Level(false, 0))
	if globalZapLogger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("a later Get at info level should disable debug again")
	}
}

func TestGetReturnsNoopLoggerIfGlobalLoggerNil(t *testing.T) {
	// Save and restore globalLogrLogger for isolation
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	logger := Get(mockLogLevel)
	if logger == nil {
		t.Fatal("Get should return a logger (noop) if globalLogrLogger is nil")
	}
	// logr.Discard() returns a pointer, so we can check type
	if fmt.Sprintf("%T", logger) != "*logr.Logger" {
		t.Errorf("Get should return a logr.Logger type, got %T", logger)
	}
}

func TestWithLoggerAddsLoggerToContext(t *testing.T) {
	ctx := context.Background()
	logger := Get(mockLogLevel)
	newCtx := WithLogger(ctx, logger)

	got := newCtx.Value(loggerContextKey{})
	if got == nil {
		t.Fatal("WithLogger should add logger to context")
	}
	if got != logger {
		t.Error("WithLogger should store the provided logger in context")
	}
}

func TestWithLoggerReturnsSameContextIfLoggerAlreadySet(t *testing.T) {
	ctx := context.Background()
	logger := Get(mockLogLevel)
	ctxWithLogger := context.WithValue(ctx, loggerContextKey{}, logger)

	resultCtx := WithLogger(ctxWithLogger, logger)
	if resultCtx != ctxWithLogger {
		t.Error("WithLogger should return the same context if logger is already set and matches")
	}
}

func TestWithLoggerReplacesLoggerIfDifferent(t *testing.T) {
	ctx := context.Background()
	logger1 := Get(mockLogLevel)
	logger2 := logr.Discard()
	ctxWithLogger := context.WithValue(ctx, loggerContextKey{}, logger1)

	resultCtx := WithLogger(ctxWithLogger, &logger2)
	got := resultCtx.Value(loggerContextKey{})
	if got != &logger2 {
		t.Error("WithLogger should replace logger in context if different")
	}
}

func TestFromContextReturnsLoggerFromContext(t *testing.T) {
	ctx := context.Background()
	logger := Get(mockLogLevel)
	ctxWithLogger := context.WithValue(ctx, loggerContextKey{}, logger)

	got := FromContext(ctxWithLogger)
	if got != logger {
		t.Error("FromContext should return the logger stored in context")
	}
}

func TestFromContextReturnsGlobalLoggerIfNoLoggerInContext(t *testing.T) {
	ctx := context.Background()
	globalLogger := Get(mockLogLevel)

	got := FromContext(ctx)
	if got != globalLogger {
		t.Error("FromContext should return the global logger if none in context")
	}
}

func TestFromContextReturnsNoopLoggerIfNoGlobalOrContextLogger(t *testing.T) {
	// Save and restore globalLogrLogger for isolation
	orig := globalLogrLogger
	globalLogrLogger = nil
	defer func() { globalLogrLogger = orig }()

	ctx := context.Background()
	got := FromContext(ctx)
	if got == nil {
		t.Fatal("FromContext should return a logger (noop) if none in context or global")
	}
	if got != &defaultNoopLogger {
		t.Error("FromContext should return defaultNoopLogger if no logger is set")
	}
}

func TestSyncDoesNotPanicWhenGlobalZapLoggerIsNil(t *testing.T) {
	// Save and restore globalZapLogger for isolation
	orig := globalZapLogger
	globalZapLogger = nil
	defer func() { globalZapLogger = orig }()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Sync should not panic when globalZapLogger is nil, but got panic: %v", r)
		}
	}()
	Sync()
}

func TestWithValuesReturnsNewLoggerWithValues(t *testing.T) {
	logger := Get(mockLogLevel)
	key := "testKey"
	value := "testValue"

	newLogger := WithValues(logger, key, value)
	if newLogger == nil {
		t.Fatal("WithValues should return a non-nil logger")
	}
	if newLogger == logger {
		t.Error("WithValues should return a new logger instance, not the original")
	}
}

func TestWithValuesPreservesOriginalLogger(t *testing.T) {
	logger := Get(mockLogLevel)
	key := "key"
	value := "value"

	_ = WithValues(logger, key, value)
	// The original logger should not have the new values attached
	// logr.Logger does not expose values, but we can check that calling WithValues again returns a new pointer
	newLogger := WithValues(logger, key, value)
	if newLogger == logger {
		t.Error("WithValues should not mutate the original logger")
	}
}

func TestWithValuesHandlesNilLogger(t *testing.T) {
	var logger *logr.Logger = nil
	defer func() {
		if r := recover(); r == nil {
			t.Error("WithValues should panic when given a nil logger")
		}
	}()
	_ = WithValues(logger, "key", "value")
}

func TestWithValuesWithNoValuesReturnsNewLogger(t *testing.T) {
	logger := Get(mockLogLevel)
	newLogger := WithValues(logger)
	if newLogger == nil {
		t.Fatal("WithValues should return a non-nil logger even with no values")
	}
	if newLogger == logger {
		t.Error("WithValues should return a new logger instance even with no values")
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		verbosity int
		want      int8
	}{
		{name: "info", want: 0},
		{name: "debug", debug: true, want: -1},
		{name: "verbose", verbosity: 2, want: -2},
		{name: "debug and verbose", debug: true, verbosity: 1, want: -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Level(tt.debug, tt.verbosity); got != tt.want {
				t.Errorf("Level(%v, %d) = %d, want %d", tt.debug, tt.verbosity, got, tt.want)
			}
		})
	}
}

func TestForWidgetUsesContextLogger(t *testing.T) {
	var sink []any
	base := logr.New(&captureSink{kv: &sink})
	ctx := WithLogger(context.Background(), &base)

	lgr := ForWidget(ctx, "w1", "https://x")
	lgr.Info("hello")
	want := []any{WidgetKey, "w1", URLKey, "https://x"}
	if fmt.Sprint(sink) != fmt.Sprint(want) {
		t.Errorf("ForWidget values = %v, want %v", sink, want)
	}
}

// captureSink records the values attached with WithValues.
type captureSink struct {
	kv     *[]any
	values []any
}

func (c *captureSink) Init(logr.RuntimeInfo) {}
func (c *captureSink) Enabled(int) bool { return true }
func (c *captureSink) Error(error, string, ...any) {}
func (c *captureSink) Info(_ int, _ string, _ ...any) {
	*c.kv = append([]any(nil), c.values...)
}

func (c *captureSink) WithValues(kv ...any) logr.LogSink {
	return &captureSink{kv: c.kv, values: append(append([]any(nil), c.values...), kv...)}
}
func (c *captureSink) WithName(string) logr.LogSink { return c }
