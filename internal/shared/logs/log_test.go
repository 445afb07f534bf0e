package logs

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"TextRPG/internal/shared/config"
)

func TestInit_非法级别回退到info(t *testing.T) {
	l, err := Init("test", config.LogConfig{Level: "loud"})
	if err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if l == nil {
		t.Fatalf("期望返回 logger")
	}
	if Level() != zapcore.InfoLevel {
		t.Fatalf("期望 level=info, got=%v", Level())
	}
}

func TestSetLevel_运行期调整级别(t *testing.T) {
	if _, err := Init("test", config.LogConfig{Level: "info", FileDir: filepath.Join(t.TempDir(), "rpg.log")}); err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if err := SetLevel("debug"); err != nil {
		t.Fatalf("期望 err=nil, got=%v", err)
	}
	if Level() != zapcore.DebugLevel {
		t.Fatalf("期望 level=debug, got=%v", Level())
	}
	if !Logger().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("期望 logger 开启 debug")
	}
	if err := SetLevel("nope"); err == nil {
		t.Fatalf("期望非法级别返回错误")
	}
}
