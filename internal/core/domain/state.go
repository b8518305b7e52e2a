package domain

import (
	"maps"
	"slices"
)

// FileState is the fingerprint of a single file.
type FileState struct {
	ModTime int64  `json:"mtime"`
	Hash    uint64 `json:"hash"`
}

// CmdState is the captured standard output of a command resource.
type CmdState struct {
	Cmd    string `json:"cmd"`
	Dir    string `json:"dir"`
	Stdout string `json:"stdout"`
}

// ResourcesState is a snapshot of a Resources value.
type ResourcesState struct {
	Files   map[string]FileState `json:"files,omitempty"`
	Cmds    []CmdState           `json:"cmds,omitempty"`
	EnvVars map[string]*string   `json:"env,omitempty"`
}

// Equal reports structural equality. Two nil states are equal; nil and
// non-nil never are.
func (s *ResourcesState) Equal(other *ResourcesState) bool {
	if s == nil || other == nil {
		return s == other
	}
	return maps.Equal(s.Files, other.Files) &&
		slices.Equal(s.Cmds, other.Cmds) &&
		maps.EqualFunc(s.EnvVars, other.EnvVars, func(a, b *string) bool {
			if a == nil || b == nil {
				return a == b
			}
			return *a == *b
		})
}

// TargetEnvState is the last successfully persisted snapshot of a target.
type TargetEnvState struct {
	Input  *ResourcesState `json:"input,omitempty"`
	Output *ResourcesState `json:"output,omitempty"`
}
