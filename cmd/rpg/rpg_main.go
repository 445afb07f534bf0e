package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"TextRPG/internal/shared/config"
	"TextRPG/internal/shared/logs"
	"TextRPG/modules/kit/logx"

	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "", "配置文件路径，默认从当前目录向上查找 configs/conf.yml")
	flag.Parse()

	if err := run(*cfgPath, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath string, in io.Reader, out io.Writer) error {
	loader, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	cfg := loader.Config()

	zl, err := logs.Init("rpg", cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logs.Sync() }()
	log := logx.NewZapLogger(zl)
	log.Info("conf", zap.String("path", loader.Path()), zap.Any("game", cfg.Game))

	// 只有日志级别支持热更新；其余配置在开局时读取一次。
	loader.Watch(func(c *config.Config) {
		if err := logs.SetLevel(c.Log.Level); err != nil {
			log.Warn("日志级别无效，保留旧值", zap.String("level", c.Log.Level), zap.Error(err))
			return
		}
		log.Info("日志级别已更新", zap.String("level", c.Log.Level))
	}, func(err error) {
		logx.ReportSysErrorWithLoggerContext(context.Background(), log, logx.NewSysLog("config_reload", err))
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := newSession(loader.Path(), cfg, log, out)
	if err != nil {
		logx.ReportSysErrorWithLoggerContext(ctx, log, logx.NewSysLog("session_init", err))
		return err
	}
	defer s.close()

	return s.play(ctx, in)
}
