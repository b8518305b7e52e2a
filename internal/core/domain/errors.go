package domain

import "go.trai.ch/zerr"

var (
	// ErrTargetAlreadyExists is returned when a target id is added to the graph twice.
	ErrTargetAlreadyExists = zerr.New("target already exists")

	// ErrMissingDependency is returned when a target references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the target dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTargetNotFound is returned when a requested target is not found in the graph.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrNoTargetsSpecified is returned when no targets are specified for the run command.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrInvalidTargetName is returned when a project or target name contains invalid characters.
	ErrInvalidTargetName = zerr.New("names can only contain alphanumeric characters, hyphens and underscores")

	// ErrConflictingTargetKind is returned when a target declares both a build and a service script.
	ErrConflictingTargetKind = zerr.New("target cannot declare both build and service")

	// ErrImportNameMismatch is returned when an imported project is not named after its import key.
	ErrImportNameMismatch = zerr.New("imported project name does not match import name")

	// ErrMissingProjectName is returned when an imported project has no name.
	ErrMissingProjectName = zerr.New("missing project name")

	// ErrDuplicateProject is returned when two different directories declare the same project name.
	ErrDuplicateProject = zerr.New("project name is declared by two directories")

	// ErrInvalidInputItem is returned when an input item is neither a resource nor a dependency output.
	ErrInvalidInputItem = zerr.New("invalid input item")

	// ErrConfigNotFound is returned when the config file cannot be found.
	ErrConfigNotFound = zerr.New("could not find weft.yaml")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrStoreReadFailed is returned when a state file cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read target state")

	// ErrStoreUnmarshalFailed is returned when a state file cannot be decoded.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal target state")

	// ErrStoreMarshalFailed is returned when a state cannot be encoded.
	ErrStoreMarshalFailed = zerr.New("failed to marshal target state")

	// ErrStoreWriteFailed is returned when a state file cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write target state")

	// ErrStoreDeleteFailed is returned when a state file cannot be removed.
	ErrStoreDeleteFailed = zerr.New("failed to delete target state")

	// ErrResourceStateFailed is returned when the state of a resource cannot be computed.
	ErrResourceStateFailed = zerr.New("failed to compute resource state")

	// ErrCommandFailed is returned when a script exits with a non-zero status.
	ErrCommandFailed = zerr.New("command failed")

	// ErrCommandStartFailed is returned when a script cannot be spawned.
	ErrCommandStartFailed = zerr.New("failed to start command")

	// ErrCancelled is returned when an execution was interrupted before completion.
	ErrCancelled = zerr.New("execution cancelled")

	// ErrBuildExecutionFailed is returned when at least one target failed in one-shot mode.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrWatchFailed is returned when a path cannot be registered with the watcher.
	ErrWatchFailed = zerr.New("failed to watch path")

	// ErrCleanFailed is returned when an output or state path cannot be removed.
	ErrCleanFailed = zerr.New("failed to clean")
)
