// Package logging provides real-time log output for the governance runtime.
// The event broker is THE observable record. This package renders lines for
// console monitoring and can mirror them into the broker via BrokerSink.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging to stdout.
// For durable observability, attach a BrokerSink via SetOutput.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// SetOutput sets the output writer (default: stdout).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry in traditional format: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	l.mu.Lock()
	min := l.minLevel
	l.mu.Unlock()
	if levelPriority[level] < levelPriority[min] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Runtime-derived logging methods ---
// These are called by the runtime after the corresponding state change.
// They provide real-time console output without duplicating broker data.

// Admitted logs a successful admission (real-time output).
func (l *Logger) Admitted(limiter string, waited time.Duration) {
	l.Debug("admitted", map[string]interface{}{
		"limiter": limiter,
		"waited":  waited.String(),
	})
}

// Rejected logs a rejected request.
func (l *Logger) Rejected(limiter, caller, reason string) {
	l.Warn("rejected", map[string]interface{}{
		"limiter": limiter,
		"caller":  caller,
		"reason":  reason,
	})
}

// TaskStart logs the start of a supervised task.
func (l *Logger) TaskStart(name, runID string) {
	l.Info("task_start", map[string]interface{}{
		"task":   name,
		"run_id": runID,
	})
}

// TaskComplete logs a task reaching a terminal status.
func (l *Logger) TaskComplete(name string, duration time.Duration, status string) {
	l.Info("task_complete", map[string]interface{}{
		"task":     name,
		"duration": duration.String(),
		"status":   status,
	})
}

// TaskFailed logs a task failure with its classified kind.
func (l *Logger) TaskFailed(name, kind, message string) {
	l.Error("task_failed", map[string]interface{}{
		"task":  name,
		"kind":  kind,
		"error": message,
	})
}

// ToolCall logs a tool invocation (real-time output).
func (l *Logger) ToolCall(tool string) {
	l.Debug("tool_call", map[string]interface{}{
		"tool": tool,
	})
}

// ToolResult logs a tool result (real-time output).
func (l *Logger) ToolResult(tool string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"tool":     tool,
		"duration": duration.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("tool_error", fields)
	} else {
		l.Debug("tool_result", fields)
	}
}

// PermissionDecision logs a tool permission decision.
func (l *Logger) PermissionDecision(tool, action, reason string) {
	l.Debug("permission", map[string]interface{}{
		"tool":   tool,
		"action": action,
		"reason": reason,
	})
}
