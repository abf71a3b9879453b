package config

import (
	"fmt"

	"github.com/zeromicro/go-zero/core/service"
	"github.com/zeromicro/go-zero/rest"

	"bagel-gateway-sol/internal/pkg/logger"
)

type MonitorConfig struct {
	Port int `yaml:"port"` // 监控端口，0 表示关闭
}

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，可选 "console"（开发调试）或 "json"（结构化，推荐生产使用）
	LogDir   string `yaml:"log_dir"`  // 日志文件目录，可为相对路径或绝对路径
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// RestConfig REST 服务相关配置
type RestConfig struct {
	Host       string `yaml:"host"`        // 监听地址，默认 0.0.0.0
	Port       int    `yaml:"port"`        // 监听端口
	TimeoutMs  int64  `yaml:"timeout_ms"`  // 单请求超时（毫秒）。解密全流程可能跨多次重试，需远大于默认值
	MaxConns   int    `yaml:"max_conns"`   // 最大并发连接数，0 走框架默认
	CpuGatePct int64  `yaml:"cpu_gate_pct"` // CPU 过载保护阈值，0 关闭
}

func (c *RestConfig) ToRestConf(serviceName string) rest.RestConf {
	host := c.Host
	if host == "" {
		host = "0.0.0.0"
	}
	return rest.RestConf{
		ServiceConf: service.ServiceConf{
			Name: serviceName,
		},
		Host:         host,
		Port:         c.Port,
		Timeout:      c.TimeoutMs,
		MaxConns:     c.MaxConns,
		CpuThreshold: c.CpuGatePct,
	}
}

func (c *RestConfig) ListenOn() string {
	host := c.Host
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, c.Port)
}
