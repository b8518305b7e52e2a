// Package domain contains the core models of the build orchestrator: targets,
// their resources and persisted state, the dependency graph, and the messages
// exchanged by target actors.
package domain

import (
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

// TargetIDSeparator separates the project name from the target name.
const TargetIDSeparator = "::"

var namePattern = regexp.MustCompile(`^\w[-\w]*$`)

// TargetID identifies a target across all loaded projects.
type TargetID struct {
	Project string
	Name    string
}

// NewTargetID creates a TargetID.
func NewTargetID(project, name string) TargetID {
	return TargetID{Project: project, Name: name}
}

// String renders the identifier as "project::name".
func (id TargetID) String() string {
	return id.Project + TargetIDSeparator + id.Name
}

// ParseTargetID parses "project::name" or a bare "name", the latter being
// resolved against defaultProject.
func ParseTargetID(s, defaultProject string) (TargetID, error) {
	project, name, found := strings.Cut(s, TargetIDSeparator)
	if !found {
		project, name = defaultProject, s
	}

	if err := ValidateName(name); err != nil {
		return TargetID{}, zerr.With(err, "target", s)
	}
	if err := ValidateName(project); err != nil {
		return TargetID{}, zerr.With(err, "target", s)
	}

	return NewTargetID(project, name), nil
}

// ValidateName checks that a project or target name is usable in identifiers
// and file names.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return zerr.With(ErrInvalidTargetName, "name", name)
	}
	return nil
}

// TargetMetadata holds what every target variant has in common.
type TargetMetadata struct {
	ID           TargetID
	ProjectDir   string
	Dependencies []TargetID
}

// Target is one of *BuildTarget, *ServiceTarget or *AggregateTarget.
type Target interface {
	Meta() *TargetMetadata
	InputResources() Resources
	OutputResources() Resources
	isTarget()
}

// BuildTarget runs a script to completion and is skipped when its resources
// have not changed since the last successful run.
type BuildTarget struct {
	TargetMetadata
	Script string
	Input  Resources
	Output Resources
}

// ServiceTarget keeps a long-running process alive while it is requested.
type ServiceTarget struct {
	TargetMetadata
	Script string
	Input  Resources
}

// AggregateTarget groups dependencies without doing any work itself.
type AggregateTarget struct {
	TargetMetadata
}

func (t *BuildTarget) Meta() *TargetMetadata      { return &t.TargetMetadata }
func (t *BuildTarget) InputResources() Resources  { return t.Input }
func (t *BuildTarget) OutputResources() Resources { return t.Output }
func (*BuildTarget) isTarget()                    {}

func (t *ServiceTarget) Meta() *TargetMetadata     { return &t.TargetMetadata }
func (t *ServiceTarget) InputResources() Resources { return t.Input }
func (*ServiceTarget) OutputResources() Resources  { return Resources{} }
func (*ServiceTarget) isTarget()                   {}

func (t *AggregateTarget) Meta() *TargetMetadata    { return &t.TargetMetadata }
func (*AggregateTarget) InputResources() Resources  { return Resources{} }
func (*AggregateTarget) OutputResources() Resources { return Resources{} }
func (*AggregateTarget) isTarget()                  {}

// RequestKinds returns the execution kinds the root requests for a target
// selected on the command line.
func RequestKinds(t Target) []ExecutionKind {
	switch t.(type) {
	case *BuildTarget:
		return []ExecutionKind{Build}
	case *ServiceTarget:
		return []ExecutionKind{Service}
	default:
		return []ExecutionKind{Build, Service}
	}
}

// WatchKind returns the kind invalidated when the target's own input changes.
func WatchKind(t Target) ExecutionKind {
	if _, ok := t.(*ServiceTarget); ok {
		return Service
	}
	return Build
}
