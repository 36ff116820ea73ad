package lib

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

type config struct {
	LogLevel string `mapstructure:"log_level"`
	Termite  struct {
		Url      string
		Username string
	}
	Cache struct {
		Type string
	}
	KeyNotInConfigMap string
}

func writeConfig(t *testing.T, configMap map[string]interface{}) string {
	data, err := yaml.Marshal(&configMap)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "termite.yml")
	require.NoError(t, ioutil.WriteFile(path, data, 0600))
	return path
}

// reset parses an empty command line so the test binary's own flags are never seen by pflag.
func reset() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	viper.Reset()
	_ = pflag.CommandLine.Parse(nil)
}

func TestInitializeConfigFromPath(t *testing.T) {
	reset()
	path := writeConfig(t, map[string]interface{}{
		"log_level": "debug",
		"termite": map[string]interface{}{
			"url": "https://termite.example.com/termite",
		},
	})

	var parsed config
	err := InitializeConfig(path, map[string]interface{}{"cache.type": "none"}, &parsed)

	require.NoError(t, err)
	assert.Equal(t, "https://termite.example.com/termite", parsed.Termite.Url)
	assert.Equal(t, "none", parsed.Cache.Type)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInitializeConfigEnvOverride(t *testing.T) {
	reset()
	path := writeConfig(t, map[string]interface{}{
		"termite": map[string]interface{}{"url": "http://localhost:9090/termite", "username": ""},
	})

	os.Setenv("TERMITE_URL", "http://override/termite")
	os.Setenv("KEYNOTINCONFIGMAP", "ignored")
	defer os.Unsetenv("TERMITE_URL")
	defer os.Unsetenv("KEYNOTINCONFIGMAP")

	var parsed config
	require.NoError(t, InitializeConfig(path, map[string]interface{}{}, &parsed))

	assert.Equal(t, "http://override/termite", parsed.Termite.Url)
	// viper only reads env vars for keys it knows about
	assert.Equal(t, "", parsed.KeyNotInConfigMap)
}

func TestInitializeConfigMissingFile(t *testing.T) {
	reset()

	var parsed config
	err := InitializeConfig(filepath.Join(t.TempDir(), "missing.yml"), map[string]interface{}{
		"termite.url": "http://localhost:9090/termite",
	}, &parsed)

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9090/termite", parsed.Termite.Url)
}

func TestInitializeConfigWithFlags(t *testing.T) {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	viper.Reset()
	path := writeConfig(t, map[string]interface{}{
		"termite": map[string]interface{}{"url": "http://from-file/termite", "username": "file-user"},
	})
	override := writeConfig(t, map[string]interface{}{
		"termite": map[string]interface{}{"url": "http://from-override/termite", "username": "override-user"},
	})

	pflag.String(configFlag, "", "")
	pflag.String("termite.username", "flag-default", "")
	require.NoError(t, pflag.CommandLine.Parse([]string{"--config", override, "--termite.username", "flag-user"}))

	var parsed config
	require.NoError(t, InitializeConfig(path, map[string]interface{}{}, &parsed))

	assert.Equal(t, "http://from-override/termite", parsed.Termite.Url)
	assert.Equal(t, "flag-user", parsed.Termite.Username)
}

func TestInitializeConfigBadLogLevel(t *testing.T) {
	reset()
	path := writeConfig(t, map[string]interface{}{"log_level": "loud"})

	var parsed config
	assert.Error(t, InitializeConfig(path, map[string]interface{}{}, &parsed))
}
