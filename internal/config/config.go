// Package config resolves CLI settings from flags and TENDRIL_* environment
// variables. Precedence is flag > environment > default; there is no config
// file framework.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/aretw0/tendril/pkg/domain"
)

// Environment variables recognized by the CLI. Flags always win.
const (
	EnvAgentSpec     = "TENDRIL_AGENT_SPEC"
	EnvWorkspaceRoot = "TENDRIL_WORKSPACE_ROOT"
	EnvConfig        = "TENDRIL_CONFIG"
	EnvStreamMode    = "TENDRIL_STREAM_MODE"
)

// Stream modes the executor protocol understands.
const (
	StreamModeUpdates = "updates"
	StreamModeValues  = "values"
)

// DataDirName is the workspace-local directory holding tendril state.
const DataDirName = ".tendril"

// Resolve returns the first non-empty value among the flag value, the named
// environment variable, and the fallback.
func Resolve(flagValue, envName, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if val := os.Getenv(envName); val != "" {
		return val
	}
	return fallback
}

// AgentSpec resolves the agent location spec. Empty means unset; the caller
// decides whether that is an error.
func AgentSpec(flagValue string) string {
	return Resolve(flagValue, EnvAgentSpec, "")
}

// WorkspaceRoot resolves the workspace root directory.
func WorkspaceRoot(flagValue string) string {
	return Resolve(flagValue, EnvWorkspaceRoot, ".")
}

// StreamMode resolves and validates the executor stream mode.
func StreamMode(flagValue string) (string, error) {
	mode := Resolve(flagValue, EnvStreamMode, StreamModeUpdates)
	switch mode {
	case StreamModeUpdates, StreamModeValues:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid stream mode %q (want %q or %q)", mode, StreamModeUpdates, StreamModeValues)
	}
}

// DataDir returns the tendril state directory under the workspace root.
func DataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// ThreadsDir returns the thread record directory under the workspace root.
func ThreadsDir(root string) string {
	return filepath.Join(DataDir(root), "threads")
}

// PromptsDir returns the prompt library directory under the workspace root.
func PromptsDir(root string) string {
	return filepath.Join(DataDir(root), "prompts")
}

// LoadRunConfig parses a run config from the flag value or TENDRIL_CONFIG.
// The value is a path when a file exists there, otherwise inline JSON. An
// empty value yields an empty config. Inline values that are neither an
// existing file nor valid JSON are a usage error.
func LoadRunConfig(flagValue string) (domain.RunConfig, error) {
	raw := Resolve(flagValue, EnvConfig, "")
	if raw == "" {
		return domain.RunConfig{}, nil
	}

	data := []byte(raw)
	if info, err := os.Stat(raw); err == nil && !info.IsDir() {
		data, err = os.ReadFile(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", raw, err)
		}
	}

	var cfg domain.RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config must be a JSON object (inline or a file path): %w", err)
	}
	if cfg == nil {
		cfg = domain.RunConfig{}
	}
	return cfg, nil
}

// EnsureThreadID guarantees configurable.thread_id is present, generating a
// UUID when absent, and returns the effective id.
func EnsureThreadID(cfg domain.RunConfig) string {
	if id := cfg.ThreadID(); id != "" {
		return id
	}
	id := uuid.NewString()
	cfg.SetThreadID(id)
	return id
}
