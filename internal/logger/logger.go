package logger

import (
	"go.uber.org/zap"
)

// New builds the process logger. Development mode uses the human readable
// console encoder with debug level enabled.
func New(dev bool) (*zap.SugaredLogger, error) {
	var z *zap.Logger
	var err error
	if dev {
		cfg := zap.NewDevelopmentConfig()
		z, err = cfg.Build()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return z.Sugar(), nil
}

// Nop returns a logger that discards everything, used by tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
