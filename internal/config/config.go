package config

import (
	"errors"
	"io/fs"
	"os"

	"arcnet/pkg/errx"

	"gopkg.in/yaml.v3"
)

// Config 配置文件结构体
type Config struct {
	Version string `yaml:"version"`
	Sqlite  struct {
		Db     string `yaml:"db"`
		Prefix string `yaml:"prefix"`
	} `yaml:"sqlite"`
	Log struct {
		Level  string   `yaml:"level"`
		Writer []string `yaml:"writer"`
		File   string   `yaml:"file"`
	} `yaml:"log"`
	Har struct {
		CreatorName    string   `yaml:"creatorName"`
		CreatorVersion string   `yaml:"creatorVersion"`
		Redact         []string `yaml:"redact"` // 导出时需要脱敏的头部名称
	} `yaml:"har"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	cfg := &Config{Version: "1.0.0"}
	cfg.Sqlite.Db = "cookies.db"
	cfg.Sqlite.Prefix = "arcnet_"
	cfg.Log.Level = "info"
	cfg.Log.Writer = []string{"console"}
	cfg.Har.CreatorName = "arcnet"
	cfg.Har.CreatorVersion = cfg.Version
	cfg.Har.Redact = []string{"authorization", "proxy-authorization"}
	return cfg
}

// Load 读取 YAML 配置文件并覆盖默认值，文件不存在时返回默认配置
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, errx.Wrap(errx.CodeInvalidConfig, err, "读取配置文件失败")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errx.Wrap(errx.CodeInvalidConfig, err, "解析配置文件失败")
	}
	return cfg, nil
}
