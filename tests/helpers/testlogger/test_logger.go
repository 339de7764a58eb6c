package testlogger

import (
	"fmt"
	"sync"

	"go.ytsaurus.tech/library/go/core/log"
)

type Entry struct {
	Level string
	Msg   string
}

// Logger records entries instead of writing them; safe for concurrent calls
// since interceptors log from many calls at once.
type Logger struct {
	mutex   sync.Mutex
	entries []Entry
}

func New() *Logger { return &Logger{} }

func (l *Logger) Entries() []Entry {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	res := make([]Entry, len(l.entries))
	copy(res, l.entries)
	return res
}

func (l *Logger) Messages(level string) []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	var res []string
	for _, entry := range l.entries {
		if entry.Level == level {
			res = append(res, entry.Msg)
		}
	}
	return res
}

func (l *Logger) append(level, msg string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg})
}

// Implement log.Logger and related interfaces
func (l *Logger) Logger() log.Logger              { return l }
func (l *Logger) Fmt() log.Fmt                    { return l }
func (l *Logger) Structured() log.Structured      { return l }
func (l *Logger) WithName(name string) log.Logger { return l }

// Structured
func (l *Logger) Trace(msg string, fields ...log.Field) { l.append("TRACE", msg) }
func (l *Logger) Debug(msg string, fields ...log.Field) { l.append("DEBUG", msg) }
func (l *Logger) Info(msg string, fields ...log.Field)  { l.append("INFO", msg) }
func (l *Logger) Warn(msg string, fields ...log.Field)  { l.append("WARN", msg) }
func (l *Logger) Error(msg string, fields ...log.Field) { l.append("ERROR", msg) }
func (l *Logger) Fatal(msg string, fields ...log.Field) { l.append("FATAL", msg) }

// Fmt
func (l *Logger) Tracef(format string, args ...interface{}) { l.Trace(fmt.Sprintf(format, args...)) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...interface{})  { l.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.Error(fmt.Sprintf(format, args...)) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.Fatal(fmt.Sprintf(format, args...)) }
