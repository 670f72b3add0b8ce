package runner

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ToolSpec describes how to invoke one external scanner. Args may contain
// {{placeholder}} tokens substituted at build time.
type ToolSpec struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// ToolSet maps a scan kind to its tool invocation.
type ToolSet struct {
	Subdomain ToolSpec `yaml:"subdomain"`
	Port      ToolSpec `yaml:"port"`
	Path      ToolSpec `yaml:"path"`
}

// DefaultToolSet returns the stock subfinder/nmap/ffuf invocations.
func DefaultToolSet() ToolSet {
	return ToolSet{
		Subdomain: ToolSpec{
			Command: "subfinder",
			Args:    []string{"-d", "{{target}}", "-all", "-silent", "-oJ", "-o", "{{output}}"},
		},
		Port: ToolSpec{
			Command: "nmap",
			Args:    []string{"-sS", "{{target}}", "-p", "{{ports}}", "-oX", "{{output}}"},
		},
		Path: ToolSpec{
			Command: "ffuf",
			Args: []string{
				"-w", "{{wordlist}}", "-u", "{{url}}FUZZ", "-r",
				"-p", "{{delay}}", "-mc", "all",
				"-o", "{{output}}", "-of", "json",
			},
		},
	}
}

// LoadToolSet reads a YAML tool file; missing sections keep their defaults.
func LoadToolSet(path string) (ToolSet, error) {
	set := DefaultToolSet()
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return set, fmt.Errorf("read tools file: %w", err)
	}

	var loaded ToolSet
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return set, fmt.Errorf("parse tools file: %w", err)
	}

	if loaded.Subdomain.Command != "" {
		set.Subdomain = loaded.Subdomain
	}
	if loaded.Port.Command != "" {
		set.Port = loaded.Port
	}
	if loaded.Path.Command != "" {
		set.Path = loaded.Path
	}
	return set, nil
}

// BuildArgs substitutes {{key}} placeholders from vars into the spec's
// argument list.
func (s ToolSpec) BuildArgs(vars map[string]string) []string {
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	replacer := strings.NewReplacer(pairs...)

	args := make([]string, len(s.Args))
	for i, arg := range s.Args {
		args[i] = replacer.Replace(arg)
	}
	return args
}
