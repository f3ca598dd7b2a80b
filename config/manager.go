package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dyike/TradeCortex/internal/logger"
)

const defaultFileName = "config.json"

// Manager owns the on-disk config file and reloads it when it changes.
// Values read from the file are layered under environment overrides, the
// same way LoadFile does it, so API keys may live in the environment only.
type Manager struct {
	path     string
	debounce time.Duration
	log      *zap.Logger

	mu       sync.RWMutex
	cfg      Config
	digest   [sha256.Size]byte
	onChange func(Config)
	watching bool
	done     chan struct{}
}

type managerOptions struct {
	configPath    string
	initialConfig *Config
	debounce      time.Duration
}

type ManagerOption func(*managerOptions)

// WithConfigDir places config.json in dir.
func WithConfigDir(dir string) ManagerOption {
	return func(o *managerOptions) {
		if dir != "" {
			o.configPath = filepath.Join(dir, defaultFileName)
		}
	}
}

// WithConfigPath sets the file explicitly; .yaml/.yml selects YAML.
func WithConfigPath(path string) ManagerOption {
	return func(o *managerOptions) {
		if path != "" {
			o.configPath = path
		}
	}
}

func WithDebounce(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithInitialConfig seeds the file when it does not exist yet.
func WithInitialConfig(cfg *Config) ManagerOption {
	return func(o *managerOptions) {
		o.initialConfig = cfg
	}
}

func NewManager(opts ...ManagerOption) (*Manager, error) {
	o := managerOptions{debounce: 300 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}
	if o.configPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			if dir, err = os.Getwd(); err != nil {
				return nil, err
			}
		}
		o.configPath = filepath.Join(dir, "TradeCortex", defaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(o.configPath), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	m := &Manager{
		path:     o.configPath,
		debounce: o.debounce,
		log:      logger.Named("config"),
	}

	raw, err := os.ReadFile(m.path)
	switch {
	case err == nil:
		cfg, err := m.decode(raw)
		if err != nil {
			return nil, err
		}
		m.cfg, m.digest = cfg, sha256.Sum256(raw)
	case errors.Is(err, os.ErrNotExist):
		seed := DefaultConfigWithRoot(filepath.Dir(m.path))
		if o.initialConfig != nil {
			seed = o.initialConfig.Clone()
		}
		if err := seed.Validate(); err != nil {
			return nil, err
		}
		if err := m.persist(*seed); err != nil {
			return nil, fmt.Errorf("write initial config: %w", err)
		}
		m.cfg = *seed
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}
	return m, nil
}

func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.cfg
	cfg.SelectedAnalysts = append([]string(nil), m.cfg.SelectedAnalysts...)
	return cfg
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) UpdateFromJSON(jsonStr string) error {
	var cfg Config
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return fmt.Errorf("parse config json: %w", err)
	}
	return m.Update(cfg)
}

// Update validates cfg, writes it and notifies the watcher callback. The
// write itself is not picked up again as a file change.
func (m *Manager) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if reflect.DeepEqual(m.Get(), cfg) {
		return nil
	}
	if err := m.persist(cfg); err != nil {
		return err
	}
	m.apply(cfg)
	return nil
}

// Watch starts watching the config directory until ctx is done. onChange runs
// after every successful reload, including reloads caused by Update.
func (m *Manager) Watch(ctx context.Context, onChange func(Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = onChange
	if m.watching {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// 监听目录而不是文件，编辑器的 rename 写入才能被捕获
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}
	m.watching = true
	m.done = make(chan struct{})
	go m.watchLoop(ctx, watcher, m.done)
	return nil
}

// Wait blocks until the watch loop started by Watch has exited.
func (m *Manager) Wait() {
	m.mu.RLock()
	done := m.done
	m.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer watcher.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	target := filepath.Clean(m.path)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(m.debounce)
			} else {
				timer.Reset(m.debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.log.Warn("watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			m.reload()
		}
	}
}

func (m *Manager) reload() {
	raw, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		// 文件被删掉时用当前配置重建
		if err := m.persist(m.Get()); err != nil {
			m.log.Error("recreate failed", zap.String("path", m.path), zap.Error(err))
		}
		return
	}
	if err != nil {
		m.log.Error("reload failed", zap.String("path", m.path), zap.Error(err))
		return
	}

	sum := sha256.Sum256(raw)
	m.mu.RLock()
	unchanged := sum == m.digest
	m.mu.RUnlock()
	if unchanged {
		return
	}

	cfg, err := m.decode(raw)
	if err != nil {
		m.log.Warn("reloaded config rejected", zap.String("path", m.path), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.digest = sum
	m.mu.Unlock()
	if reflect.DeepEqual(m.Get(), cfg) {
		return
	}
	m.log.Info("config reloaded", zap.String("path", m.path))
	m.apply(cfg)
}

func (m *Manager) apply(cfg Config) {
	m.mu.Lock()
	m.cfg = cfg
	cb := m.onChange
	m.mu.Unlock()

	if cb != nil {
		cb(cfg)
	}
}

// decode layers the file over defaults rooted at the config dir and then
// applies environment overrides.
func (m *Manager) decode(raw []byte) (Config, error) {
	cfg := DefaultConfigWithRoot(filepath.Dir(m.path))
	if err := unmarshalConfig(m.path, raw, cfg); err != nil {
		return Config{}, err
	}
	cfg.loadFromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return *cfg, nil
}

// persist writes cfg atomically and remembers its digest so the watcher
// ignores the resulting event.
func (m *Manager) persist(cfg Config) error {
	data, err := marshalConfig(m.path, withoutEnvSecrets(cfg))
	if err != nil {
		return err
	}
	if err := writeAtomic(m.path, data); err != nil {
		return err
	}
	m.mu.Lock()
	m.digest = sha256.Sum256(data)
	m.mu.Unlock()
	return nil
}

// withoutEnvSecrets blanks credentials whose value came from the
// environment; they are re-applied on load.
func withoutEnvSecrets(cfg Config) Config {
	for env, field := range map[string]*string{
		"DEEPSEEK_API_KEY":      &cfg.DeepSeekAPIKey,
		"OPENAI_API_KEY":        &cfg.OpenAIAPIKey,
		"GOOGLE_API_KEY":        &cfg.GoogleAPIKey,
		"FINNHUB_API_KEY":       &cfg.FinnhubAPIKey,
		"LONGPORT_APP_KEY":      &cfg.LongportAppKey,
		"LONGPORT_APP_SECRET":   &cfg.LongportAppSecret,
		"LONGPORT_ACCESS_TOKEN": &cfg.LongportAccessToken,
	} {
		if v := os.Getenv(env); v != "" && v == *field {
			*field = ""
		}
	}
	return cfg
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func unmarshalConfig(path string, raw []byte, cfg *Config) error {
	if isYAML(path) {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return fmt.Errorf("parse config yaml: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config json: %w", err)
	}
	return nil
}

func marshalConfig(path string, cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if isYAML(path) {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&cfg); err != nil {
			return nil, fmt.Errorf("encode config: %w", err)
		}
		return buf.Bytes(), enc.Close()
	}
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// writeConfigFile writes cfg to path in the format its extension selects.
func writeConfigFile(path string, cfg Config) error {
	data, err := marshalConfig(path, cfg)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}
