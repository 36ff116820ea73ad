/*
 * Copyright 2022 Medicines Discovery Catapult
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *     http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package lib

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFlag = "config"

type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`
	// LogFormat is "json" (the default) or "console" for human readable output on stderr.
	LogFormat string `mapstructure:"log_format"`
}

/**
	InitializeConfig loads config for the termite and rest-api binaries.

	Precedence, highest first:
	  - command line flags the app registered on pflag.CommandLine before calling this, when set
	  - env vars named after the key, upper cased with "." replaced by "_" (TERMITE_URL for termite.url)
	  - the yml file at defaultPath, or at the path given with --config
	  - defaultConfig

	An env var is only read for a key viper already knows about, so every key that should be
	overridable needs an entry in defaultConfig or the yml file. A missing yml file is not an error.

	targetStruct must be a pointer. Nested keys map onto nested structs via mapstructure tags.
	Log level and format are applied to zerolog's global logger before returning.
**/
func InitializeConfig(defaultPath string, defaultConfig map[string]interface{}, targetStruct interface{}) error {

	if pflag.Lookup(configFlag) == nil {
		pflag.String(configFlag, defaultPath, "The config file path.")
	}
	if !pflag.Parsed() {
		pflag.Parse()
	}

	configFile, err := pflag.CommandLine.GetString(configFlag)
	if err != nil {
		return err
	}

	for k, v := range defaultConfig {
		viper.SetDefault(k, v)
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configFile != "" {
		if configFile, err = filepath.Abs(configFile); err != nil {
			return err
		}
		viper.SetConfigName(strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile)))
		viper.AddConfigPath(filepath.Dir(configFile))

		err = viper.ReadInConfig()
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Warn().Str("path", configFile).Msg("config file not found, default settings applied")
		} else if err != nil {
			return err
		}
	}

	// bind only the flags set on the command line
	var bindErr error
	pflag.CommandLine.Visit(func(f *pflag.Flag) {
		if f.Name == configFlag || bindErr != nil {
			return
		}
		bindErr = viper.BindPFlag(f.Name, f)
	})
	if bindErr != nil {
		return bindErr
	}

	var bc BaseConfig
	if err := viper.Unmarshal(&bc); err != nil {
		return err
	}
	if err := ConfigureLogging(bc); err != nil {
		return err
	}

	return viper.Unmarshal(targetStruct)
}

// ConfigureLogging sets zerolog's global level and output. An empty level means info.
func ConfigureLogging(bc BaseConfig) error {
	level := bc.LogLevel
	if level == "" {
		level = zerolog.InfoLevel.String()
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)

	if bc.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}
