package main

import (
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type config struct {
	HTTPAddr        string        `yaml:"http_addr" env:"HTTP_ADDR" env-default:":8080"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat       string        `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	JWTSecret       string        `yaml:"auth_jwt_secret" env:"AUTH_JWT_SECRET"`
	TariffTablePath string        `yaml:"tariff_table_path" env:"TARIFF_TABLE_PATH"`
	MaxUploadMB     int64         `yaml:"max_upload_mb" env:"MAX_UPLOAD_MB" env-default:"32"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" env-default:"60s"`
}

// loadConfig reads the optional YAML file, then the environment.
func loadConfig(path string) (config, error) {
	var cfg config
	if strings.TrimSpace(path) == "" {
		path = os.Getenv("ADJUST_CONFIG")
	}
	var err error
	if strings.TrimSpace(path) == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	return cfg, err
}

func (c config) maxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 0
	}
	return c.MaxUploadMB << 20
}
