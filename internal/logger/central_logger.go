package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	// time.LoadLocation must work on hosts without tzdata
	_ "time/tzdata"

	"github.com/farmwatch/farmwatch/internal/errors"
)

const logDirPerm = 0o700

// CentralLogger hands out module loggers. Modules without an own output
// share the base handler (console plus the main file). A module listed in
// ModuleOutputs writes JSON to its own file and, with ConsoleAlso, to the
// console too. Outputs naming the same path share one writer.
type CentralLogger struct {
	config   *LoggingConfig
	timezone *time.Location
	base     slog.Handler
	levels   map[string]slog.Level

	mu    sync.RWMutex
	files map[string]*BufferedFileWriter // by cleaned path
}

// NewCentralLogger builds the handlers and opens every configured log file.
// Missing config sections get defaults.
func NewCentralLogger(cfg *LoggingConfig) (*CentralLogger, error) {
	if cfg == nil {
		return nil, errors.NewStd("logging config cannot be nil")
	}
	applyConfigDefaults(cfg)

	tz, err := loadTimezone(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	cl := &CentralLogger{
		config:   cfg,
		timezone: tz,
		levels:   make(map[string]slog.Level, len(cfg.ModuleLevels)),
		files:    make(map[string]*BufferedFileWriter),
	}
	for module, level := range cfg.ModuleLevels {
		cl.levels[module] = parseLogLevel(level)
	}

	if cl.base, err = cl.baseHandler(); err != nil {
		cl.closeFiles()
		return nil, err
	}
	for module, out := range cfg.ModuleOutputs {
		if !out.Enabled {
			continue
		}
		if _, err := cl.openFile(out.FilePath); err != nil {
			cl.closeFiles()
			return nil, fmt.Errorf("log output for module %s: %w", module, err)
		}
	}
	return cl, nil
}

func loadTimezone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	tz, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", name, err)
	}
	return tz, nil
}

func (cl *CentralLogger) consoleEnabled() bool {
	return cl.config.Console != nil && cl.config.Console.Enabled
}

func (cl *CentralLogger) baseHandler() (slog.Handler, error) {
	var hs fanout
	if cl.consoleEnabled() {
		hs = append(hs, newTextHandler(os.Stdout, parseLogLevel(cl.config.Console.Level), cl.timezone))
	}
	if out := cl.config.FileOutput; out != nil && out.Enabled {
		w, err := cl.openFile(out.Path)
		if err != nil {
			return nil, fmt.Errorf("main log file: %w", err)
		}
		hs = append(hs, newJSONHandler(w, parseLogLevel(out.Level), cl.timezone))
	}
	if len(hs) == 0 {
		return newTextHandler(os.Stdout, parseLogLevel(cl.config.DefaultLevel), cl.timezone), nil
	}
	return combine(hs), nil
}

// openFile returns the writer for path, creating its directory and the
// writer on first use.
func (cl *CentralLogger) openFile(path string) (*BufferedFileWriter, error) {
	key := filepath.Clean(path)
	if w, ok := cl.files[key]; ok {
		return w, nil
	}
	if dir := filepath.Dir(key); dir != "." {
		if err := os.MkdirAll(dir, logDirPerm); err != nil {
			return nil, err
		}
	}
	w, err := NewBufferedFileWriter(key)
	if err != nil {
		return nil, err
	}
	cl.files[key] = w
	return w, nil
}

// levelFor resolves a module level: module output, then module levels, then
// the default.
func (cl *CentralLogger) levelFor(module string) slog.Level {
	if out, ok := cl.config.ModuleOutputs[module]; ok && out.Level != "" {
		return parseLogLevel(out.Level)
	}
	if level, ok := cl.levels[module]; ok {
		return level
	}
	return parseLogLevel(cl.config.DefaultLevel)
}

// Module returns a logger scoped to name.
func (cl *CentralLogger) Module(name string) Logger {
	if cl == nil {
		return nil
	}
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	level := cl.levelFor(name)
	handler := cl.base

	if out, ok := cl.config.ModuleOutputs[name]; ok && out.Enabled {
		var hs fanout
		if w, ok := cl.files[filepath.Clean(out.FilePath)]; ok {
			hs = append(hs, newJSONHandler(w, level, cl.timezone))
		}
		if out.ConsoleAlso && cl.consoleEnabled() {
			hs = append(hs, newTextHandler(os.Stdout, level, cl.timezone))
		}
		if len(hs) > 0 {
			handler = combine(hs)
		}
	}
	return newModuleLogger(name, handler, level)
}

// Flush pushes buffered lines to the OS. Close also syncs and closes.
func (cl *CentralLogger) Flush() error {
	if cl == nil {
		return nil
	}
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return cl.eachFile("flush", (*BufferedFileWriter).Flush)
}

// Close flushes and closes every log file. The logger must not be used
// afterwards.
func (cl *CentralLogger) Close() error {
	if cl == nil {
		return nil
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.closeFiles()
}

func (cl *CentralLogger) closeFiles() error {
	err := cl.eachFile("close", (*BufferedFileWriter).Close)
	clear(cl.files)
	return err
}

func (cl *CentralLogger) eachFile(op string, fn func(*BufferedFileWriter) error) error {
	var errs []error
	for path, w := range cl.files {
		if err := fn(w); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", op, path, err))
		}
	}
	return errors.Join(errs...)
}

// combine avoids the fan-out wrapper for a single handler.
func combine(hs fanout) slog.Handler {
	if len(hs) == 1 {
		return hs[0]
	}
	return newMultiWriterHandler(hs...)
}
