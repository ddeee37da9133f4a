package ioc

import (
	"os"

	"czagent/internal/app"
)

const defaultConfigPath = "configs/config.yaml"

// ConfigPathEnv 覆盖默认配置路径的环境变量。
const ConfigPathEnv = "CZAGENT_CONFIG"

// InitConfig 读取应用配置。
func InitConfig() (app.Config, error) {
	path := defaultConfigPath
	if p := os.Getenv(ConfigPathEnv); p != "" {
		path = p
	}
	return app.LoadConfig(path)
}
