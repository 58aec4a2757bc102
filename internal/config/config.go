package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/HsiangNianian/hybridbridge/internal/hostctx"
	"github.com/tailscale/hujson"
)

type Config struct {
	Bridge BridgeConfig `json:"bridge"`
	Host   HostConfig   `json:"host"`
	Store  StoreConfig  `json:"store"`
	Log    LogConfig    `json:"log"`
}

type BridgeConfig struct {
	Scheme         string `json:"scheme"`
	FrameTTLMillis int    `json:"frame_ttl_ms"`
	// Bootstrap values, used until the host reports itself.
	Platform string `json:"platform"`
	Version  string `json:"version"`
	// HostURL points a native page client at a host simulator.
	HostURL   string `json:"host_url,omitempty"`
	AuthToken string `json:"auth_token,omitempty"`
}

type HostConfig struct {
	ListenAddr    string   `json:"listen_addr"`
	Host          string   `json:"host"`
	Port          int      `json:"port"`
	PagePath      string   `json:"page_path"`
	MonitorPath   string   `json:"monitor_path"`
	AuthToken     string   `json:"auth_token"`
	Platform      string   `json:"platform"`
	Version       string   `json:"version"`
	Device        string   `json:"device"`
	AppID         string   `json:"app_id"`
	HasNetwork    bool     `json:"has_network"`
	InstalledApps []string `json:"installed_apps,omitempty"`
	Location      Location `json:"location"`
}

type Location struct {
	City    string `json:"city"`
	Address string `json:"address"`
	Lat     string `json:"lat"`
	Lng     string `json:"lng"`
}

type StoreConfig struct {
	RedisAddr  string `json:"redis_addr"`
	KeyPrefix  string `json:"key_prefix"`
	TTLSeconds int    `json:"ttl_seconds"`
}

type LogConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

func Default() Config {
	return Config{
		Bridge: BridgeConfig{
			Scheme:         "ctrip",
			FrameTTLMillis: 200,
			Platform:       "ios",
		},
		Host: HostConfig{
			ListenAddr:  envOrDefault("HOSTSIM_LISTEN_ADDR", ":8080"),
			PagePath:    "/ws/page",
			MonitorPath: "/ws/monitor",
			AuthToken:   os.Getenv("HOSTSIM_AUTH_TOKEN"),
			Platform:    "android",
			Version:     "5.5",
			Device:      "hostsim",
			AppID:       "com.example.hybrid",
			HasNetwork:  true,
		},
		Store: StoreConfig{
			RedisAddr: os.Getenv("REDIS_ADDR"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config failed: %w", err)
	}
	return Parse(content)
}

// Parse reads HuJSON (JSON with comments and trailing commas) over the defaults.
func Parse(content []byte) (Config, error) {
	cfg := Default()

	std, err := hujson.Standardize(content)
	if err != nil {
		return Config{}, fmt.Errorf("parse config failed: %w", err)
	}
	if err := json.Unmarshal(std, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config failed: %w", err)
	}

	if cfg.Bridge.FrameTTLMillis <= 0 {
		cfg.Bridge.FrameTTLMillis = 200
	}
	if cfg.Host.PagePath == "" {
		cfg.Host.PagePath = "/ws/page"
	}
	if cfg.Host.MonitorPath == "" {
		cfg.Host.MonitorPath = "/ws/monitor"
	}
	if cfg.Host.ListenAddr == "" {
		if cfg.Host.Host != "" && cfg.Host.Port > 0 {
			cfg.Host.ListenAddr = fmt.Sprintf("%s:%d", cfg.Host.Host, cfg.Host.Port)
		} else {
			cfg.Host.ListenAddr = ":8080"
		}
	}
	if _, err := cfg.Bridge.Context(); err != nil {
		return Config{}, fmt.Errorf("bridge: %w", err)
	}
	if _, err := cfg.Host.Context(); err != nil {
		return Config{}, fmt.Errorf("host: %w", err)
	}

	return cfg, nil
}

func (b BridgeConfig) FrameTTL() time.Duration {
	return time.Duration(b.FrameTTLMillis) * time.Millisecond
}

func (b BridgeConfig) Context() (hostctx.Context, error) {
	if b.Platform == "" {
		return hostctx.New(hostctx.Default().Platform(), b.Version), nil
	}
	p, err := hostctx.ParsePlatform(b.Platform)
	if err != nil {
		return hostctx.Context{}, err
	}
	return hostctx.New(p, b.Version), nil
}

func (h HostConfig) Context() (hostctx.Context, error) {
	p, err := hostctx.ParsePlatform(h.Platform)
	if err != nil {
		return hostctx.Context{}, err
	}
	return hostctx.New(p, h.Version), nil
}

func (s StoreConfig) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
