package compat

import (
	"fmt"

	"github.com/lixenwraith/rlog"
	"go.uber.org/zap"
)

// Builder provides a flexible way to create configured logger adapters for gnet, fasthttp, Fiber and zap
// It can use an existing *rlog.Logger instance or create a new one from a *rlog.Config
type Builder struct {
	logger *rlog.Logger
	logCfg *rlog.Config
	err    error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger specifies an existing logger to use for the adapters
// If this is set WithConfig is ignored
func (b *Builder) WithLogger(l *rlog.Logger) *Builder {
	if l == nil {
		b.err = fmt.Errorf("rlog/compat: provided logger cannot be nil")
		return b
	}
	b.logger = l
	return b
}

// WithConfig provides a configuration for a new logger instance
// If neither WithLogger nor WithConfig is used, a default logger will be created
func (b *Builder) WithConfig(cfg *rlog.Config) *Builder {
	b.logCfg = cfg
	return b
}

// getLogger resolves the logger to be used, creating one if necessary
func (b *Builder) getLogger() (*rlog.Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.logger != nil {
		return b.logger, nil
	}

	cfg := b.logCfg
	if cfg == nil {
		cfg = rlog.DefaultConfig()
	}
	l := rlog.NewLogger()
	if err := l.SetConfig(cfg); err != nil {
		return nil, err
	}

	// Cache the newly created logger for subsequent builds with this builder
	b.logger = l
	return l, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// BuildFiber creates a Fiber-style adapter
func (b *Builder) BuildFiber(opts ...FiberOption) (*FiberAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFiberAdapter(l, opts...), nil
}

// BuildZap creates a *zap.Logger whose core writes into the rlog logger
func (b *Builder) BuildZap(opts ...zap.Option) (*zap.Logger, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return zap.New(NewZapCore(l), opts...), nil
}

// GetLogger returns the underlying *rlog.Logger instance
// If a logger has not been provided or created yet, it will be initialized
func (b *Builder) GetLogger() (*rlog.Logger, error) {
	return b.getLogger()
}

// --- Example Usage ---
//
//	appLogger := rlog.New(&rlog.Config{...})
//	builder := compat.NewBuilder().WithLogger(appLogger)
//
//	gnetLogger, _ := builder.BuildGnet()
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	fasthttpLogger, _ := builder.BuildFastHTTP()
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
//
//	zapLogger, _ := builder.BuildZap()
//	zapLogger.Info("ready", zap.Int("port", 8080))
