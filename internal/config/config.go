package config

import (
	"time"
)

// Config holds every tunable of the farming loop
type Config struct {
	// Backend
	BaseURL        string `yaml:"baseURL"`
	InvitationCode string `yaml:"invitationCode"`
	ChecksumSalt   string `yaml:"checksumSalt"`
	MaxClicksToday int    `yaml:"maxClicksPerDay"`

	// Input / output files
	DataFile     string `yaml:"dataFile"`
	ProxyFile    string `yaml:"proxyFile"`
	TokenFile    string `yaml:"tokenFile"`
	DatabaseFile string `yaml:"databaseFile"` // empty disables run history

	// Pacing
	AccountDelayMs        int `yaml:"accountDelayMs"`
	TaskDelayMs           int `yaml:"taskDelayMs"`
	CycleDelaySeconds     int `yaml:"cycleDelaySeconds"`
	RequestTimeoutSeconds int `yaml:"requestTimeoutSeconds"`

	// Header profile
	UserAgent      string `yaml:"userAgent"`
	AcceptLanguage string `yaml:"acceptLanguage"`
	Origin         string `yaml:"origin"`

	// Observability
	LogLevel    string `yaml:"logLevel"`
	LogFile     string `yaml:"logFile"`
	MetricsAddr string `yaml:"metricsAddr"` // empty disables the /metrics listener
}

const (
	DefaultBaseURL        = "https://api.freedogs.bot"
	DefaultInvitationCode = "QCGA4QGx"
	DefaultChecksumSalt   = "7be2a16a82054ee58398c5edb7ac4a5a"
	DefaultMaxClicksToday = 10000

	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"
	DefaultAcceptLanguage = "vi-VN,vi;q=0.9,fr-FR;q=0.8,fr;q=0.7,en-US;q=0.6,en;q=0.5"
	DefaultOrigin         = "https://app.freedogs.bot"
)

// Default returns the configuration used when no config file is present
func Default() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		InvitationCode: DefaultInvitationCode,
		ChecksumSalt:   DefaultChecksumSalt,
		MaxClicksToday: DefaultMaxClicksToday,

		DataFile:     "data.txt",
		ProxyFile:    "proxy.txt",
		TokenFile:    "token.json",
		DatabaseFile: "freedogs.db",

		AccountDelayMs:        1000,
		TaskDelayMs:           1000,
		CycleDelaySeconds:     60,
		RequestTimeoutSeconds: 30,

		UserAgent:      DefaultUserAgent,
		AcceptLanguage: DefaultAcceptLanguage,
		Origin:         DefaultOrigin,

		LogLevel: "INFO",
	}
}

// AccountDelay is the pause after each account
func (c *Config) AccountDelay() time.Duration {
	return time.Duration(c.AccountDelayMs) * time.Millisecond
}

// TaskDelay is the pause after each task completion attempt
func (c *Config) TaskDelay() time.Duration {
	return time.Duration(c.TaskDelayMs) * time.Millisecond
}

// CycleDelay is the countdown between two full passes
func (c *Config) CycleDelay() time.Duration {
	return time.Duration(c.CycleDelaySeconds) * time.Second
}

// RequestTimeout bounds a single backend call
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// applyDefaults fills zero values left by a partial config file
func (c *Config) applyDefaults() {
	def := Default()

	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.InvitationCode == "" {
		c.InvitationCode = def.InvitationCode
	}
	if c.ChecksumSalt == "" {
		c.ChecksumSalt = def.ChecksumSalt
	}
	if c.MaxClicksToday <= 0 {
		c.MaxClicksToday = def.MaxClicksToday
	}
	if c.DataFile == "" {
		c.DataFile = def.DataFile
	}
	if c.ProxyFile == "" {
		c.ProxyFile = def.ProxyFile
	}
	if c.TokenFile == "" {
		c.TokenFile = def.TokenFile
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = def.RequestTimeoutSeconds
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = def.AcceptLanguage
	}
	if c.Origin == "" {
		c.Origin = def.Origin
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}
