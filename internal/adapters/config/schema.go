package config

import (
	"regexp"
	"strings"

	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Weftfile represents the structure of the weft.yaml configuration file.
type Weftfile struct {
	Name    string                `yaml:"name"`
	Imports map[string]string     `yaml:"imports"`
	Targets map[string]*TargetDTO `yaml:"targets"`
}

// TargetDTO represents a target definition in the configuration.
type TargetDTO struct {
	Dependencies []string       `yaml:"dependencies"`
	Input        []ResourceItem `yaml:"input"`
	Output       []ResourceItem `yaml:"output"`
	Build        string         `yaml:"build"`
	Service      string         `yaml:"service"`
}

var dependencyOutputPattern = regexp.MustCompile(`^((\w[-\w]*::)?\w[-\w]*)\.output$`)

// ResourceItem is one entry of an input or output list. Exactly one of its
// fields is set.
type ResourceItem struct {
	Paths      []string
	Extensions []string
	CmdStdout  string
	Env        []string

	// DependencyOutput names the target whose output is reused as input.
	DependencyOutput string
}

type resourceItemDTO struct {
	Paths      []string `yaml:"paths"`
	Extensions []string `yaml:"extensions"`
	CmdStdout  string   `yaml:"cmd_stdout"`
	Env        []string `yaml:"env"`
}

// UnmarshalYAML accepts either a "<target>.output" scalar or a mapping
// describing a file, command or environment resource.
func (r *ResourceItem) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		m := dependencyOutputPattern.FindStringSubmatch(node.Value)
		if m == nil {
			return zerr.With(domain.ErrInvalidInputItem, "item", node.Value)
		}
		r.DependencyOutput = m[1]
		return nil
	}

	var dto resourceItemDTO
	if err := node.Decode(&dto); err != nil {
		return err
	}

	kinds := 0
	for _, set := range []bool{len(dto.Paths) > 0, dto.CmdStdout != "", len(dto.Env) > 0} {
		if set {
			kinds++
		}
	}
	if kinds != 1 || (len(dto.Extensions) > 0 && len(dto.Paths) == 0) {
		return zerr.With(domain.ErrInvalidInputItem, "line", node.Line)
	}

	r.Paths = dto.Paths
	r.CmdStdout = dto.CmdStdout
	r.Env = dto.Env
	for _, ext := range dto.Extensions {
		r.Extensions = append(r.Extensions, strings.TrimPrefix(ext, "."))
	}
	return nil
}
