package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/schema"
)

// DefaultGraph is the graph name assumed when a spec names none.
const DefaultGraph = "graph"

// GraphConfig describes how to launch one graph command.
type GraphConfig struct {
	Command     string            `yaml:"command" json:"command" mapstructure:"command"`
	Args        []string          `yaml:"args" json:"args" mapstructure:"args"`
	Env         map[string]string `yaml:"env" json:"env" mapstructure:"env"`
	Description string            `yaml:"description" json:"description" mapstructure:"description"`
}

// Manifest is the agents.yaml file mapping graph names to launch configs.
type Manifest struct {
	Graphs map[string]GraphConfig `yaml:"graphs" json:"graphs" mapstructure:"graphs"`
}

// graphSchema is the validated shape of one manifest entry.
var graphSchema = schema.Schema{
	"command":     schema.String(),
	"args":        schema.Optional(schema.Slice(schema.String())),
	"env":         schema.Optional(schema.Map(schema.String())),
	"description": schema.Optional(schema.String()),
}

// LoadManifest reads an agents manifest (YAML, or JSON by extension) and
// validates every graph entry against the expected shape.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
	}

	graphs, ok := raw["graphs"].(map[string]any)
	if !ok || len(graphs) == 0 {
		return nil, errors.New("manifest has no graphs section")
	}
	for name, entry := range graphs {
		spec, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("graph %q: expected a mapping, got %T", name, entry)
		}
		if err := schema.Validate(graphSchema, spec); err != nil {
			return nil, fmt.Errorf("graph %q: %w", name, err)
		}
	}

	var m Manifest
	if err := mapstructure.Decode(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// Resolve returns the launch config for the named graph.
func (m *Manifest) Resolve(name string) (GraphConfig, error) {
	cfg, ok := m.Graphs[name]
	if !ok {
		return GraphConfig{}, fmt.Errorf("%w: %s", domain.ErrGraphNotFound, name)
	}
	return cfg, nil
}

// Names returns the manifest's graph names, sorted.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Graphs))
	for name := range m.Graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Executor builds a process executor for the named graph. Extra options are
// applied after the manifest's own settings and may override them.
func (m *Manifest) Executor(name string, opts ...Option) (*Executor, error) {
	cfg, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithArgs(cfg.Args...),
		WithGraph(name),
		WithEnv(envList(cfg.Env)...),
	}
	return New(cfg.Command, append(base, opts...)...), nil
}

// Executors builds a registry holding one executor per manifest graph.
func (m *Manifest) Executors(opts ...Option) *registry.Registry {
	reg := registry.NewRegistry()
	for name := range m.Graphs {
		exe, _ := m.Executor(name, opts...)
		reg.Register(name, exe)
	}
	return reg
}

// ParseSpec splits an agent spec of the form "path:graph" into its parts.
// The suffix counts as a graph name only when it contains no path separators
// or dots, and a single-letter prefix is read as a Windows drive letter, so
// bare paths pass through unchanged.
func ParseSpec(spec string) (path, graph string) {
	if i := strings.LastIndex(spec, ":"); i > 1 {
		if suffix := spec[i+1:]; suffix != "" && !strings.ContainsAny(suffix, `/\.`) {
			return spec[:i], suffix
		}
	}
	return spec, ""
}

func envList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}
