// Package logger holds the process-wide zap logger.
package logger

import (
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	current atomic.Pointer[zap.Logger]
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func init() {
	current.Store(zap.NewNop())
}

// Option adjusts how Init builds the global logger.
type Option func(*options)

type options struct {
	development bool
	fields      []zap.Field
	core        zapcore.Core
}

// WithDevelopment switches to zap's human readable console encoder.
func WithDevelopment(enabled bool) Option {
	return func(o *options) { o.development = enabled }
}

// WithFields attaches fields to every entry.
func WithFields(fields ...zap.Field) Option {
	return func(o *options) { o.fields = append(o.fields, fields...) }
}

// WithCore writes entries to core instead of stderr. The shared level still
// gates which entries reach it.
func WithCore(core zapcore.Core) Option {
	return func(o *options) { o.core = core }
}

// Init replaces the global logger. Unknown levels fall back to info.
func Init(lvl string, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := SetLevel(lvl); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}

	var (
		built *zap.Logger
		err   error
	)
	switch {
	case o.core != nil:
		built = zap.New(&levelCore{Core: o.core})
	case o.development:
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = level
		built, err = cfg.Build()
	default:
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		built, err = cfg.Build()
	}
	if err != nil {
		return err
	}

	current.Store(built.With(o.fields...))
	return nil
}

// SetLevel changes the minimum level of the running logger.
func SetLevel(lvl string) error {
	return level.UnmarshalText([]byte(lvl))
}

// LevelHandler serves GET and PUT of the current level as JSON, e.g.
// {"level":"debug"}.
func LevelHandler() http.Handler {
	return level
}

// Logger returns the global logger.
func Logger() *zap.Logger {
	return current.Load()
}

// Sync flushes buffered log entries.
func Sync() error {
	return Logger().Sync()
}

// WithModule returns a child logger annotated with the module name.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

// levelCore applies the shared atomic level to a caller supplied core.
type levelCore struct {
	zapcore.Core
}

func (c *levelCore) Enabled(lvl zapcore.Level) bool {
	return level.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *levelCore) With(fields []zap.Field) zapcore.Core {
	return &levelCore{Core: c.Core.With(fields)}
}

func (c *levelCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return checked
	}
	return c.Core.Check(entry, checked)
}
