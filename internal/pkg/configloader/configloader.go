package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig 读取 YAML 配置文件并反序列化到 v。
// 文件内容先做环境变量展开（${VAR} 形式），便于在容器里注入密钥类配置。
func LoadConfig(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		// 未定义的变量原样保留，避免把 yaml 中无关的 $ 吃掉
		return "${" + key + "}"
	})

	if err := yaml.Unmarshal([]byte(expanded), v); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
