package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ConsulKey is the tree key the consul.json block is mounted under.
const ConsulKey = "consul"

// FileSystem abstracts file lookups so resolution can be tested.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// ResolvedFiles contains the resolved file paths. Empty means not found.
type ResolvedFiles struct {
	ConfigFile string
	ConsulFile string
	EnvFile    string
}

// Resolver finds config, consul and env files in standard locations.
type Resolver struct {
	FileSystem FileSystem
}

// ResolveFiles returns explicit paths from opts, searching for the rest.
func (r *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		ConsulFile: opts.ConsulFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.first(searchPaths(serviceName, "config.yml"))
	}
	if resolved.ConsulFile == "" {
		resolved.ConsulFile = r.first(searchPaths(serviceName, "consul.json"))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.first(append(
			searchPaths(serviceName, ".env."+serviceName),
			searchPaths(serviceName, ".env")...,
		))
	}
	return resolved
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

func searchPaths(serviceName, file string) []string {
	return []string{
		fmt.Sprintf("./cmd/%s/%s", serviceName, file),
		fmt.Sprintf("../cmd/%s/%s", serviceName, file),
		fmt.Sprintf("./config/%s", file),
		fmt.Sprintf("./Config/%s", file),
		fmt.Sprintf("./%s", file),
	}
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	ConsulFile string
	EnvFile    string
	Defaults   map[string]any
}

// LoaderOption is a functional option for LoadTree and LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithConsulFile sets an explicit consul.json path.
func WithConsulFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConsulFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithDefault registers a default value for key.
func WithDefault(key string, value any) LoaderOption {
	return func(lc *LoaderConfig) {
		if lc.Defaults == nil {
			lc.Defaults = make(map[string]any)
		}
		lc.Defaults[key] = value
	}
}

// LoadTree loads the configuration tree for a service.
// Missing files are not an error; unreadable files are.
func LoadTree(serviceName string, opts ...LoaderOption) (*viper.Viper, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}
	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(serviceName, lc)

	v := viper.New()
	for k, val := range lc.Defaults {
		v.SetDefault(k, val)
	}

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", files.ConfigFile, err)
		}
	}

	if files.ConsulFile != "" && lc.FileSystem.Exists(files.ConsulFile) {
		block := viper.New()
		block.SetConfigFile(files.ConsulFile)
		if err := block.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read consul file %s: %w", files.ConsulFile, err)
		}
		if err := v.MergeConfigMap(map[string]any{ConsulKey: block.AllSettings()}); err != nil {
			return nil, fmt.Errorf("merge consul file %s: %w", files.ConsulFile, err)
		}
	}

	// .env values only fill variables that are not already exported.
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", files.EnvFile, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// LoadConfig loads the tree for a service and unmarshals it into cfg.
// The tree is returned so callers can hand it to a host object.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) (*viper.Viper, error) {
	v, err := LoadTree(serviceName, opts...)
	if err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config for service %s: %w", serviceName, err)
	}
	return v, nil
}
