/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal so old binaries tolerate newer files.

// EngineConfig configures the external layout engine used for authoritative pagination.
type EngineConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is never stored on disk; it lives in the OS keychain and is
	// carried here only in memory after Load.
	Token string `yaml:"-"`
}

// PaginationConfig carries the fallback estimator constants. These are
// presentation choices tied to the Courier 12pt / US Letter convention and are
// deliberately configuration, not invariants.
type PaginationConfig struct {
	LinesPerPage     int `yaml:"lines_per_page"`
	ActionCols       int `yaml:"action_cols"`
	DialogueCols     int `yaml:"dialogue_cols"`
	MinDialogueLines int `yaml:"min_dialogue_lines"`
}

type GeneralConfig struct {
	TelemetryOptIn    bool `yaml:"telemetry_opt_in"`
	ExtractDebounceMs int  `yaml:"extract_debounce_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int              `yaml:"config_version"`
	General       GeneralConfig    `yaml:"general"`
	Engine        EngineConfig     `yaml:"engine"`
	Pagination    PaginationConfig `yaml:"pagination"`
	Logging       LoggingConfig    `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, ExtractDebounceMs: 300},
		Engine:        EngineConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000, TLSInsecure: false},
		Pagination:    PaginationConfig{LinesPerPage: 57, ActionCols: 61, DialogueCols: 35, MinDialogueLines: 2},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvEngineURL       = "GSW_ENGINE_URL"
	EnvEngineTimeoutMs = "GSW_ENGINE_TIMEOUT_MS"
	EnvEngineTLSInsec  = "GSW_TLS_INSECURE"
	EnvTelemetryOptIn  = "GSW_TELEMETRY_OPT_IN"
	EnvDebounceMs      = "GSW_EXTRACT_DEBOUNCE_MS"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GSW_LOG_LEVEL"
	EnvLogFormat = "GSW_LOG_FORMAT"
	EnvLogSource = "GSW_LOG_SOURCE"
	EnvLogFile   = "GSW_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "GoScreenwriter"
	keyringToken   = "engine_token"
)

// tokenStore abstracts the keyring, so we can stub in tests.
var tokenStore TokenStore = &osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoScreenwriter")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoScreenwriter")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "goscreenwriter")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also loads the engine token from the keyring into Engine.Token (and returns it for callers
// that persist it back through Save).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	cfg.Engine.Token = tok
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if src.General.ExtractDebounceMs != 0 {
		dst.General.ExtractDebounceMs = src.General.ExtractDebounceMs
	}
	if src.Engine.BaseURL != "" {
		dst.Engine.BaseURL = src.Engine.BaseURL
	}
	if src.Engine.TimeoutMs != 0 {
		dst.Engine.TimeoutMs = src.Engine.TimeoutMs
	}
	dst.Engine.TLSInsecure = src.Engine.TLSInsecure
	if src.Pagination.LinesPerPage != 0 {
		dst.Pagination.LinesPerPage = src.Pagination.LinesPerPage
	}
	if src.Pagination.ActionCols != 0 {
		dst.Pagination.ActionCols = src.Pagination.ActionCols
	}
	if src.Pagination.DialogueCols != 0 {
		dst.Pagination.DialogueCols = src.Pagination.DialogueCols
	}
	if src.Pagination.MinDialogueLines != 0 {
		dst.Pagination.MinDialogueLines = src.Pagination.MinDialogueLines
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvEngineURL)); v != "" {
		cfg.Engine.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvEngineTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvEngineTLSInsec)); v != "" {
		cfg.Engine.TLSInsecure = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDebounceMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.General.ExtractDebounceMs = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	switch key {
	case "engine.base_url":
		if os.Getenv(EnvEngineURL) != "" {
			return EnvEngineURL, true
		}
	case "engine.timeout_ms":
		if os.Getenv(EnvEngineTimeoutMs) != "" {
			return EnvEngineTimeoutMs, true
		}
	case "engine.tls_insecure":
		if os.Getenv(EnvEngineTLSInsec) != "" {
			return EnvEngineTLSInsec, true
		}
	case "general.telemetry_opt_in":
		if os.Getenv(EnvTelemetryOptIn) != "" {
			return EnvTelemetryOptIn, true
		}
	case "general.extract_debounce_ms":
		if os.Getenv(EnvDebounceMs) != "" {
			return EnvDebounceMs, true
		}
	case "logging.level":
		if os.Getenv(EnvLogLevel) != "" {
			return EnvLogLevel, true
		}
	case "logging.format":
		if os.Getenv(EnvLogFormat) != "" {
			return EnvLogFormat, true
		}
	case "logging.source":
		if os.Getenv(EnvLogSource) != "" {
			return EnvLogSource, true
		}
	case "logging.file":
		if os.Getenv(EnvLogFile) != "" {
			return EnvLogFile, true
		}
	}
	return "", false
}
