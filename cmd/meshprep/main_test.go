package main

import (
	"bytes"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/meshprep/internal/logger"
)

type syncBuffer struct {
	bytes.Buffer
	synced bool
}

func (b *syncBuffer) Sync() error {
	b.synced = true
	return nil
}

func TestFatalSyncsLogger(t *testing.T) {
	out := &syncBuffer{}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), out, zapcore.DebugLevel)

	prevLog, prevExit := logger.Log, exit
	defer func() { logger.Log, exit = prevLog, prevExit }()

	logger.Log = zap.New(core)
	code := -1
	exit = func(c int) { code = c }

	fatal(errors.New("boom"))

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !out.synced {
		t.Error("logger was not synced before exit")
	}
}
