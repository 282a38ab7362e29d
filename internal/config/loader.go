package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const sectionName = "Settings"

// Load reads a config file, picking the format from its extension
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadFromYAML(path)
	default:
		return LoadFromINI(path)
	}
}

// LoadOrCreate loads path, or writes a default INI file there when it does not exist
func LoadOrCreate(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := SaveToINI(path, cfg); err != nil {
			return nil, false, err
		}
		return cfg, true, nil
	}

	cfg, err := Load(path)
	return cfg, false, err
}

// LoadFromINI loads configuration from an INI file
func LoadFromINI(path string) (*Config, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	section := cfg.Section(sectionName)
	def := Default()

	config := &Config{}

	// Backend
	config.BaseURL = section.Key("baseURL").MustString(def.BaseURL)
	config.InvitationCode = section.Key("invitationCode").MustString(def.InvitationCode)
	config.ChecksumSalt = section.Key("checksumSalt").MustString(def.ChecksumSalt)
	config.MaxClicksToday = section.Key("maxClicksPerDay").MustInt(def.MaxClicksToday)

	// Files
	config.DataFile = section.Key("dataFile").MustString(def.DataFile)
	config.ProxyFile = section.Key("proxyFile").MustString(def.ProxyFile)
	config.TokenFile = section.Key("tokenFile").MustString(def.TokenFile)
	if section.HasKey("databaseFile") {
		config.DatabaseFile = section.Key("databaseFile").String()
	} else {
		config.DatabaseFile = def.DatabaseFile
	}

	// Pacing
	config.AccountDelayMs = section.Key("accountDelayMs").MustInt(def.AccountDelayMs)
	config.TaskDelayMs = section.Key("taskDelayMs").MustInt(def.TaskDelayMs)
	config.CycleDelaySeconds = section.Key("cycleDelaySeconds").MustInt(def.CycleDelaySeconds)
	config.RequestTimeoutSeconds = section.Key("requestTimeoutSeconds").MustInt(def.RequestTimeoutSeconds)

	// Headers
	config.UserAgent = section.Key("userAgent").MustString(def.UserAgent)
	config.AcceptLanguage = section.Key("acceptLanguage").MustString(def.AcceptLanguage)
	config.Origin = section.Key("origin").MustString(def.Origin)

	// Observability
	config.LogLevel = section.Key("logLevel").MustString(def.LogLevel)
	config.LogFile = section.Key("logFile").MustString("")
	config.MetricsAddr = section.Key("metricsAddr").MustString("")

	config.applyDefaults()
	return config, nil
}

// SaveToINI writes configuration to an INI file
func SaveToINI(path string, config *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	cfg := ini.Empty()
	section := cfg.Section(sectionName)

	section.Key("baseURL").SetValue(config.BaseURL)
	section.Key("invitationCode").SetValue(config.InvitationCode)
	section.Key("checksumSalt").SetValue(config.ChecksumSalt)
	section.Key("maxClicksPerDay").SetValue(fmt.Sprintf("%d", config.MaxClicksToday))

	section.Key("dataFile").SetValue(config.DataFile)
	section.Key("proxyFile").SetValue(config.ProxyFile)
	section.Key("tokenFile").SetValue(config.TokenFile)
	section.Key("databaseFile").SetValue(config.DatabaseFile)

	section.Key("accountDelayMs").SetValue(fmt.Sprintf("%d", config.AccountDelayMs))
	section.Key("taskDelayMs").SetValue(fmt.Sprintf("%d", config.TaskDelayMs))
	section.Key("cycleDelaySeconds").SetValue(fmt.Sprintf("%d", config.CycleDelaySeconds))
	section.Key("requestTimeoutSeconds").SetValue(fmt.Sprintf("%d", config.RequestTimeoutSeconds))

	section.Key("userAgent").SetValue(config.UserAgent)
	section.Key("acceptLanguage").SetValue(config.AcceptLanguage)
	section.Key("origin").SetValue(config.Origin)

	section.Key("logLevel").SetValue(config.LogLevel)
	section.Key("logFile").SetValue(config.LogFile)
	section.Key("metricsAddr").SetValue(config.MetricsAddr)

	return cfg.SaveTo(path)
}

// LoadFromYAML loads configuration from a YAML file; absent keys keep their defaults
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return config, nil
}
