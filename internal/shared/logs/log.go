package logs

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"TextRPG/internal/shared/config"
)

var (
	mu          sync.Mutex
	logger      = zap.NewNop()
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init 初始化进程级 zap logger：控制台彩色输出到 stderr，配置了 FileDir 时另写一份 JSON 到滚动文件。
func Init(appName string, cfg config.LogConfig) (*zap.Logger, error) {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	consoleCfg := encoderCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(consoleCfg)

	fileCfg := encoderCfg
	fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(fileCfg)

	mu.Lock()
	defer mu.Unlock()
	atomicLevel.SetLevel(lvl)

	// 不写 ANSI 颜色进文件：两路 core 分开编码。
	consoleSyncer := zapcore.Lock(os.Stderr)
	core := zapcore.NewCore(consoleEncoder, consoleSyncer, atomicLevel)
	if cfg.FileDir != "" {
		var fileWriter io.Writer = &lumberjack.Logger{
			Filename:   cfg.FileDir,
			MaxSize:    max(1, cfg.MaxSize),
			MaxBackups: max(0, cfg.MaxBackups),
			MaxAge:     max(0, cfg.MaxAge),
			Compress:   cfg.Compress,
		}
		core = zapcore.NewTee(
			core,
			zapcore.NewCore(jsonEncoder, zapcore.AddSync(fileWriter), atomicLevel),
		)
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Dev {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}

	l := zap.New(core, opts...).Named(appName)
	_ = logger.Sync()
	logger = l
	return l, nil
}

// Logger 返回当前进程级 logger；未初始化时是 nop。
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// SetLevel 运行期调整日志级别（配置热更新时调用）。
func SetLevel(level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	atomicLevel.SetLevel(lvl)
	return nil
}

func Level() zapcore.Level {
	return atomicLevel.Level()
}

func Sync() error {
	return Logger().Sync()
}

func parseLevel(s string) (zapcore.Level, error) {
	lvl := zapcore.InfoLevel
	if strings.TrimSpace(s) == "" {
		return lvl, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel, err
	}
	return lvl, nil
}
