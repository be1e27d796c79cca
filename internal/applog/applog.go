package applog

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const maxValueLen = 200

var (
	mu   sync.Mutex
	sink *lumberjack.Logger
)

// Init points the log at dir/tabgruppen.log. Call once at startup.
// Rotation is handled by lumberjack (5 MB per file, two old files kept).
// Safe to skip — all log calls become no-ops if not initialized.
func Init(dir string) {
	mu.Lock()
	defer mu.Unlock()
	sink = &lumberjack.Logger{
		Filename:   filepath.Join(dir, "tabgruppen.log"),
		MaxSize:    5, // megabytes
		MaxBackups: 2,
	}
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if sink != nil {
		sink.Close()
		sink = nil
	}
}

// Info logs a structured event line.
//
//	applog.Info("bridge.connected", "remote", addr)
//	applog.Info("engine.grouped", "groups", 4, "tabs", 42)
func Info(event string, kv ...any) {
	write("INFO", event, nil, kv)
}

// Error logs an event with an error.
//
//	applog.Error("engine.group", err, "group", name)
func Error(event string, err error, kv ...any) {
	write("ERROR", event, err, kv)
}

func write(level, event string, err error, kv []any) {
	mu.Lock()
	defer mu.Unlock()
	if sink == nil {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteByte(' ')
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(event)

	if err != nil {
		b.WriteString(" err=")
		b.WriteString(quote(err.Error()))
	}

	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(kv[i]))
		b.WriteByte('=')
		b.WriteString(quote(fmt.Sprint(kv[i+1])))
	}
	b.WriteByte('\n')

	sink.Write([]byte(b.String()))
}

func quote(s string) string {
	if len(s) > maxValueLen {
		s = s[:maxValueLen] + "…"
	}
	if strings.ContainsAny(s, " \t\n\"") {
		return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
	}
	return s
}
