package main

import (
	"io"
	"os"
	"path/filepath"

	"arcnet/internal/config"
	"arcnet/internal/logger"
	"arcnet/internal/service"
	"arcnet/internal/storage/db"
	"arcnet/internal/storage/model"
	"arcnet/internal/storage/repo"

	"github.com/spf13/cobra"
)

var (
	configArg   string
	logLevelArg string

	cfg = config.NewConfig()
	log logger.Logger = logger.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "arcnet",
	Short:         "arcnet 处理 HTTP 客户端的 Cookie、请求头与 HAR 导出",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configArg)
		if err != nil {
			return err
		}
		if logLevelArg != "" {
			loaded.Log.Level = logLevelArg
		}
		cfg = loaded
		log = logger.FromConfig(cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configArg, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevelArg, "log-level", "", "override log level (debug/info/warn/error/disabled)")
}

// openCookieService 按配置打开 Cookie 数据库
func openCookieService() (*service.CookieService, func(), error) {
	opts := db.Options{
		Prefix: cfg.Sqlite.Prefix,
		Logger: db.NewLogger(log),
	}
	if cfg.Sqlite.Db == db.MemoryPath || filepath.IsAbs(cfg.Sqlite.Db) {
		opts.FullPath = cfg.Sqlite.Db
	} else {
		opts.Name = cfg.Sqlite.Db
	}

	gdb, err := db.New(opts)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(gdb, model.Models()...); err != nil {
		return nil, nil, err
	}
	closer := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return service.New(repo.NewCookieRepo(gdb), log), closer, nil
}

// readInput 读取文件，"-" 表示标准输入
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path) //nolint:gosec
}
