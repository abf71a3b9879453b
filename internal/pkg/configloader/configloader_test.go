package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConf struct {
	Endpoint string `yaml:"endpoint"`
	Password string `yaml:"password"`
	Port     int    `yaml:"port"`
}

func writeTemp(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "conf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeTemp(t, "endpoint: https://example.com\nport: 8900\n")

	var c testConf
	require.NoError(t, LoadConfig(path, &c))
	assert.Equal(t, "https://example.com", c.Endpoint)
	assert.Equal(t, 8900, c.Port)
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	t.Setenv("TEST_REDIS_PASSWORD", "s3cret")
	path := writeTemp(t, "password: ${TEST_REDIS_PASSWORD}\nendpoint: ${TEST_UNDEFINED_VAR}\n")

	var c testConf
	require.NoError(t, LoadConfig(path, &c))
	assert.Equal(t, "s3cret", c.Password)
	// 未定义的变量原样保留
	assert.Equal(t, "${TEST_UNDEFINED_VAR}", c.Endpoint)
}

func TestLoadConfigMissingFile(t *testing.T) {
	var c testConf
	assert.Error(t, LoadConfig("/nonexistent/conf.yaml", &c))
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := writeTemp(t, "endpoint: [unclosed\n")
	var c testConf
	assert.Error(t, LoadConfig(path, &c))
}
