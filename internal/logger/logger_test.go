package logger_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"arcnet/internal/config"
	"arcnet/internal/logger"
)

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Options{Level: "warn", Output: &buf})

	l.Info("不应输出")
	l.Warn("cookie rejected", "name", "sid")

	out := buf.String()
	if strings.Contains(out, "不应输出") {
		t.Errorf("info message leaked through warn level: %s", out)
	}
	if !strings.Contains(out, `"message":"cookie rejected"`) || !strings.Contains(out, `"name":"sid"`) {
		t.Errorf("warn message missing fields: %s", out)
	}
}

func TestNew_Err(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Options{Level: "debug", Output: &buf})
	l.Err(errors.New("disk full"), "save failed")

	if !strings.Contains(buf.String(), `"error":"disk full"`) {
		t.Errorf("error field missing: %s", buf.String())
	}
}

func TestNew_Disabled(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Options{Level: "disabled", Output: &buf})
	l.Error("nothing")
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
}

func TestFromConfig_NoWriters(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Log.Writer = nil
	// 没有任何输出目标时退化为空日志，调用不应 panic
	l := logger.FromConfig(cfg)
	l.Info("noop")
	logger.FromConfig(nil).Debug("noop")
}
