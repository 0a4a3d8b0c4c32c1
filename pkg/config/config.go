package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veritymkt/verity/pkg/logger"
)

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Listen     string `yaml:"listen" json:"listen"`           // 监听地址，默认 :8080
	ReceiptsDB string `yaml:"receipts_db" json:"receipts_db"` // 回执 SQLite 文件路径
	RatePerSec int    `yaml:"rate_per_sec" json:"rate_per_sec"` // 每客户端 IP 的 API 限流（请求/秒），0 关闭
}

// LedgerConfig 台账存储配置
type LedgerConfig struct {
	Dir string `yaml:"dir" json:"dir"` // 记录库目录
}

// Config 进程配置
type Config struct {
	Server ServerConfig  `yaml:"server" json:"server"`
	Ledger LedgerConfig  `yaml:"ledger" json:"ledger"`
	Log    logger.Config `yaml:"log" json:"log"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:     ":8080",
			ReceiptsDB: "data/receipts.db",
		},
		Ledger: LedgerConfig{
			Dir: "data/ledger",
		},
		Log: logger.Config{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		},
	}
}

// LoadFromFile 从配置文件加载（支持 YAML 和 JSON），缺省字段用默认值填充。
// 环境变量优先级最高：VERITY_LISTEN / VERITY_RECEIPTS_DB / VERITY_LEDGER_DIR /
// VERITY_LOG_LEVEL / VERITY_LOG_FILE 覆盖文件中的对应配置。
func LoadFromFile(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}

		ext := strings.ToLower(filepath.Ext(filePath))
		switch ext {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("解析 YAML 配置文件失败: %w", err)
			}
		case ".json":
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("解析 JSON 配置文件失败: %w", err)
			}
		default:
			return nil, fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
		}
	}

	// 环境变量覆盖
	if v := os.Getenv("VERITY_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("VERITY_RECEIPTS_DB"); v != "" {
		cfg.Server.ReceiptsDB = v
	}
	if v := os.Getenv("VERITY_LEDGER_DIR"); v != "" {
		cfg.Ledger.Dir = v
	}
	if v := os.Getenv("VERITY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("VERITY_LOG_FILE"); v != "" {
		cfg.Log.OutputFile = v
	}

	return cfg, nil
}
