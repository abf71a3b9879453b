package config

import (
	"time"

	"bagel-gateway-sol/internal/chain"
	"bagel-gateway-sol/internal/pkg/xredis"
)

// AllowanceConfig allowance 授权服务配置
type AllowanceConfig struct {
	Endpoint          string `yaml:"endpoint"`            // 授权服务地址（POST）
	TimeoutSec        int    `yaml:"timeout_sec"`         // HTTP 超时（秒）
	PropagationWaitMs int    `yaml:"propagation_wait_ms"` // 授权生效固定等待（毫秒），默认 5000
}

// DecryptConfig 解密服务与重试策略配置
type DecryptConfig struct {
	Endpoint         string `yaml:"endpoint"`           // 解密服务地址
	TimeoutSec       int    `yaml:"timeout_sec"`        // 单次 HTTP 超时（秒）
	MaxRetries       int    `yaml:"max_retries"`        // 解密尝试上限，余额主路径建议 5
	BaseDelayMs      int    `yaml:"base_delay_ms"`      // 指数退避基数（毫秒），默认 2000
	SignatureTTLHour int    `yaml:"signature_ttl_hour"` // 签名复用窗口（小时），默认 24
}

// NacosConfig Nacos 注册中心相关配置。service_name 为空表示不注册
type NacosConfig struct {
	ServiceName         string   `yaml:"service_name"`            // 注册到 Nacos 的服务名称，用于服务发现
	GroupName           string   `yaml:"group_name"`              // Nacos 中的服务分组名称，默认为 DEFAULT_GROUP
	Weight              int      `yaml:"weight"`                  // 服务权重，用于负载均衡
	Username            string   `yaml:"username"`                // 连接 Nacos 的用户名
	Password            string   `yaml:"password"`                // 连接 Nacos 的密码
	TimeoutMs           int      `yaml:"timeout_ms"`              // 与 Nacos 服务中心通信超时时间（毫秒）
	BeatIntervalMs      int      `yaml:"beat_interval_ms"`        // 心跳发送间隔（毫秒）
	NamespaceId         string   `yaml:"namespace_id"`            // Nacos 命名空间，空字符串表示默认公共命名空间
	NotLoadCacheAtStart bool     `yaml:"not_load_cache_at_start"` // 启动时是否读取本地缓存，true 表示不读取，防止脏数据
	LogLevel            string   `yaml:"log_level"`               // 日志级别，info/debug/warn/error
	CacheDir            string   `yaml:"cache_dir"`               // 本地缓存目录
	LogDir              string   `yaml:"log_dir"`                 // 日志文件目录
	Endpoint            string   `yaml:"endpoint"`                // Nacos 云端地址，留空表示不使用
	StaticServers       []string `yaml:"static_servers"`          // 静态 Nacos 服务列表，与 endpoint 二选一
}

// GatewayConfig 网关服务全量配置
type GatewayConfig struct {
	Rest      RestConfig          `yaml:"rest"`      // REST 服务配置
	Monitor   MonitorConfig       `yaml:"monitor"`   // 监控配置
	LogConf   LogConfig           `yaml:"logger"`    // 日志配置
	Redis     xredis.RedisConfig  `yaml:"redis"`     // 余额缓存持久化
	Chain     chain.ChainConf     `yaml:"chain"`     // Solana RPC 与程序地址
	Wallet    chain.WalletConf    `yaml:"wallet"`    // 本地钱包
	Allowance AllowanceConfig     `yaml:"allowance"` // allowance 服务
	Decrypt   DecryptConfig       `yaml:"decrypt"`   // 解密服务与重试策略
	Nacos     NacosConfig         `yaml:"nacos"`     // Nacos 配置
}

func (c *AllowanceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c *AllowanceConfig) PropagationWait() time.Duration {
	return time.Duration(c.PropagationWaitMs) * time.Millisecond
}

func (c *DecryptConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c *DecryptConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}

func (c *DecryptConfig) SignatureTTL() time.Duration {
	return time.Duration(c.SignatureTTLHour) * time.Hour
}
