// A simple telemetry package.
// Counters have nowhere to go except log messages.
package telemetry

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type TelemetryData struct {
	logLock sync.Mutex
	logger  zerolog.Logger

	counterLock sync.Mutex
	counters    map[string]int

	trace bool
}

var data = TelemetryData{
	counters: make(map[string]int),
}

// init is called at program startup time to initialize the logger
func init() {
	SetOutput(os.Stderr)
}

// SetOutput sends log lines to w as human readable console output.
func SetOutput(w io.Writer) {
	writer := zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      true,
		TimeFormat:   "2006-01-02 15:04:05",
		TimeLocation: time.UTC,
	}
	data.logLock.Lock()
	defer data.logLock.Unlock()
	data.logger = zerolog.New(writer).With().Timestamp().Logger()
}

// SetTrace turns Trace messages on or off.
func SetTrace(on bool) {
	data.logLock.Lock()
	defer data.logLock.Unlock()
	data.trace = on
}

func logger() (zerolog.Logger, bool) {
	data.logLock.Lock()
	defer data.logLock.Unlock()
	return data.logger, data.trace
}

func Log(format string, args ...any) {
	l, _ := logger()
	l.Info().Msgf(format, args...)
}

func Trace(format string, args ...any) {
	l, trace := logger()
	if trace {
		l.Debug().Msgf(format, args...)
	}
}

func Error(err error, format string, args ...any) {
	l, _ := logger()
	l.Error().Err(err).Msgf(format, args...)
	Increment("errors", 1)
}

// Warning logs a non-fatal conversion problem at a field path.
func Warning(path string, format string, args ...any) {
	l, _ := logger()
	l.Warn().Str("path", path).Msgf(format, args...)
	Increment("warnings", 1)
}

// Request logs essential information about an HTTP request
func Request(r *http.Request, format string, args ...any) {
	l, _ := logger()
	l.Info().Str("method", r.Method).Stringer("url", r.URL).Msgf(format, args...)
}

// Increment increases a count, thread-safe
func Increment(name string, n int) {
	data.counterLock.Lock()
	defer data.counterLock.Unlock()
	data.counters[name] += n
}

func GetCounter(name string) int {
	data.counterLock.Lock()
	defer data.counterLock.Unlock()
	return data.counters[name]
}

// ResetCounters clears every counter.
func ResetCounters() {
	data.counterLock.Lock()
	defer data.counterLock.Unlock()
	data.counters = make(map[string]int)
}

func LogCounters() {
	s := make([]string, 0)
	data.counterLock.Lock()
	for k, v := range data.counters {
		s = append(s, fmt.Sprintf("%s=%d", k, v))
	}
	data.counterLock.Unlock()
	if len(s) == 0 {
		s = append(s, "no counters were recorded")
	}
	sort.Strings(s)
	Log(strings.Join(s, ", "))
}
