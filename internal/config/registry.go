package config

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// DefaultAutoResolveAfterDays は auto_resolve.after_days が未設定の場合の値
const DefaultAutoResolveAfterDays = 7

// Registry caches loaded configurations by source. A source is a file path,
// an http(s) URL, or empty for environment-only configuration. Each distinct
// source is read once per process.
type Registry struct {
	mu      sync.Mutex
	configs map[string]*Config
	client  *http.Client
}

// RegistryOption はRegistryの設定を変更する
type RegistryOption func(*Registry)

// WithHTTPClient はURLから設定を取得する際のHTTPクライアントを設定する
func WithHTTPClient(client *http.Client) RegistryOption {
	return func(r *Registry) {
		r.client = client
	}
}

// NewRegistry は空のRegistryを作成する
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		configs: make(map[string]*Config),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default はプロセス全体で共有するRegistry
var Default = NewRegistry()

// Load はDefaultレジストリから設定を読み込む
func Load(ctx context.Context, source string) (*Config, error) {
	return Default.Load(ctx, source)
}

// Reset はDefaultレジストリのキャッシュを破棄する
func Reset() {
	Default.Reset()
}

// Load returns the configuration for source, reading it on first use.
// Environment variables fill in and override values from the source. The
// returned Config is shared; use Clone before modifying it.
func (r *Registry) Load(ctx context.Context, source string) (*Config, error) {
	source = strings.TrimSpace(source)

	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg, ok := r.configs[source]; ok {
		return cfg, nil
	}

	cfg, err := r.read(ctx, source)
	if err != nil {
		return nil, err
	}
	r.configs[source] = cfg
	return cfg, nil
}

// Reset はキャッシュした設定を全て破棄する
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = make(map[string]*Config)
}

// Len はキャッシュしている設定の数を返す
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.configs)
}

func (r *Registry) read(ctx context.Context, source string) (*Config, error) {
	v := viper.New()
	if err := bindEnv(v); err != nil {
		return nil, err
	}
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("telemetry.service_name", "steward")

	switch {
	case source == "":
		// 環境変数のみ
	case isURL(source):
		body, err := r.fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		v.SetConfigType(configTypeFromURL(source))
		if err := v.ReadConfig(bytes.NewReader(body)); err != nil {
			return nil, fmt.Errorf("failed to parse config from %s: %w", source, err)
		}
	default:
		v.SetConfigFile(source)
		if ext := strings.TrimPrefix(filepath.Ext(source), "."); ext == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", source, err)
		}
	}

	cfg := NewConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if !v.IsSet("auto_resolve.after_days") {
		cfg.AutoResolve.AfterDays = DefaultAutoResolveAfterDays
	}
	normalize(cfg)
	return cfg, nil
}

func (r *Registry) fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid config URL %s: %w", source, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch config from %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch config from %s: unexpected status %s", source, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from %s: %w", source, err)
	}
	return body, nil
}

// normalize はCSVで与えられたリストの空白を除去し、空要素を取り除く
func normalize(cfg *Config) {
	cfg.ResolvedStatuses = trimAll(cfg.ResolvedStatuses)
	cfg.ClosedStatuses = trimAll(cfg.ClosedStatuses)
	cfg.IgnoreStatuses = trimAll(cfg.IgnoreStatuses)
	cfg.IgnoreLabels = trimAll(cfg.IgnoreLabels)
	cfg.ReopenStatus = strings.TrimSpace(cfg.ReopenStatus)
	cfg.Tracker.Name = strings.ToLower(strings.TrimSpace(cfg.Tracker.Name))
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// configTypeFromURL はURLのパスの拡張子から設定形式を判定する
func configTypeFromURL(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return "yaml"
	}
	switch ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), ".")); ext {
	case "json", "toml", "yaml":
		return ext
	case "yml":
		return "yaml"
	default:
		return "yaml"
	}
}
