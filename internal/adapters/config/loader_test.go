package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weft/internal/adapters/config"
	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ConfigFileName), []byte(content), 0o600))
}

func newLoader(t *testing.T) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return config.NewLoader(log)
}

func target[T domain.Target](t *testing.T, g *domain.Graph, id string) T {
	t.Helper()
	parsed, err := g.Resolve(id)
	require.NoError(t, err)
	got, ok := g.Target(parsed)
	require.True(t, ok)
	typed, ok := got.(T)
	require.True(t, ok, "unexpected target type %T", got)
	return typed
}

func TestLoader_Load_TargetKinds(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
name: app
targets:
  compile:
    input:
      - paths: [src, go.mod]
        extensions: [go, .mod]
      - cmd_stdout: git rev-parse HEAD
      - env: [GOOS, GOARCH]
    output:
      - paths: [bin/app]
    build: go build -o bin/app ./src
  web:
    dependencies: [compile]
    service: ./bin/app
  all:
    dependencies: [compile, web]
`)

	g, err := newLoader(t).Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "app", g.RootProject())
	assert.Equal(t, 3, g.Len())

	compile := target[*domain.BuildTarget](t, g, "compile")
	assert.Equal(t, "go build -o bin/app ./src", compile.Script)
	assert.Equal(t, dir, compile.ProjectDir)
	assert.Equal(t, []domain.FilesResource{{
		Paths:      []string{filepath.Join(dir, "src"), filepath.Join(dir, "go.mod")},
		Extensions: []string{"go", "mod"},
	}}, compile.Input.Files)
	assert.Equal(t, []domain.CmdResource{{Cmd: "git rev-parse HEAD", Dir: dir}}, compile.Input.Cmds)
	assert.Equal(t, []string{"GOOS", "GOARCH"}, compile.Input.EnvVars)
	assert.Equal(t, []string{filepath.Join(dir, "bin", "app")}, compile.Output.FilePaths())

	web := target[*domain.ServiceTarget](t, g, "web")
	assert.Equal(t, "./bin/app", web.Script)
	assert.Equal(t, []domain.TargetID{domain.NewTargetID("app", "compile")}, web.Dependencies)

	all := target[*domain.AggregateTarget](t, g, "all")
	assert.Len(t, all.Dependencies, 2)
}

func TestLoader_Load_DependencyOutput(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
name: app
targets:
  generate:
    output:
      - paths: [gen]
    build: ./generate.sh
  compile:
    input:
      - paths: [src]
      - generate.output
    build: make
`)

	g, err := newLoader(t).Load(dir)
	require.NoError(t, err)

	compile := target[*domain.BuildTarget](t, g, "compile")
	assert.Equal(t, []domain.TargetID{domain.NewTargetID("app", "generate")}, compile.Dependencies)
	assert.Equal(t, []string{filepath.Join(dir, "src"), filepath.Join(dir, "gen")}, compile.Input.FilePaths())
}

func TestLoader_Load_Imports(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, filepath.Join(root, "app"), `
name: app
imports:
  lib: ../lib
  proto: ../proto
targets:
  compile:
    input: [lib::generate.output]
    build: make
`)
	writeConfig(t, filepath.Join(root, "lib"), `
name: lib
imports:
  proto: ../proto
targets:
  generate:
    dependencies: [proto::gen]
    output:
      - paths: [out]
    build: ./gen.sh
`)
	writeConfig(t, filepath.Join(root, "proto"), `
name: proto
targets:
  gen:
    build: protoc
`)

	g, err := newLoader(t).Load(filepath.Join(root, "app"))
	require.NoError(t, err)

	assert.Equal(t, []domain.TargetID{
		domain.NewTargetID("app", "compile"),
		domain.NewTargetID("lib", "generate"),
		domain.NewTargetID("proto", "gen"),
	}, g.IDs())

	compile := target[*domain.BuildTarget](t, g, "compile")
	assert.Equal(t, []string{filepath.Join(root, "lib", "out")}, compile.Input.FilePaths())

	generate := target[*domain.BuildTarget](t, g, "lib::generate")
	assert.Equal(t, filepath.Join(root, "lib"), generate.ProjectDir)
}

func TestLoader_Load_FindsConfigInParent(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "name: app\ntargets:\n  all: {}\n")
	sub := filepath.Join(dir, "src", "pkg")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	g, err := newLoader(t).Load(sub)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
}

func TestLoader_Load_DefaultRootName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-app")
	writeConfig(t, dir, "targets:\n  all:\n")

	g, err := newLoader(t).Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "my-app", g.RootProject())

	dotted := filepath.Join(t.TempDir(), "my.app")
	writeConfig(t, dotted, "targets:\n  all:\n")

	g, err = newLoader(t).Load(dotted)
	require.NoError(t, err)
	assert.Equal(t, "root", g.RootProject())
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		errContains string
	}{
		{
			name:        "conflicting kind",
			files:       map[string]string{".": "targets:\n  x:\n    build: a\n    service: b\n"},
			errContains: "cannot declare both build and service",
		},
		{
			name:        "invalid input item",
			files:       map[string]string{".": "targets:\n  x:\n    input: [not-an-output]\n    build: a\n"},
			errContains: "invalid input item",
		},
		{
			name:        "input item with two kinds",
			files:       map[string]string{".": "targets:\n  x:\n    input:\n      - paths: [a]\n        cmd_stdout: date\n    build: a\n"},
			errContains: "invalid input item",
		},
		{
			name:        "dependency output in output",
			files:       map[string]string{".": "targets:\n  y:\n    build: b\n  x:\n    output: [y.output]\n    build: a\n"},
			errContains: "invalid input item",
		},
		{
			name:        "missing dependency",
			files:       map[string]string{".": "targets:\n  x:\n    dependencies: [ghost]\n"},
			errContains: "missing dependency",
		},
		{
			name:        "missing dependency output",
			files:       map[string]string{".": "targets:\n  x:\n    input: [ghost.output]\n    build: a\n"},
			errContains: "missing dependency",
		},
		{
			name:        "cycle",
			files:       map[string]string{".": "targets:\n  a:\n    dependencies: [b]\n  b:\n    dependencies: [a]\n"},
			errContains: "cycle detected",
		},
		{
			name:        "invalid target name",
			files:       map[string]string{".": "targets:\n  bad.name:\n    build: a\n"},
			errContains: "names can only contain",
		},
		{
			name: "import name mismatch",
			files: map[string]string{
				".":   "imports:\n  lib: lib\ntargets: {}\n",
				"lib": "name: other\n",
			},
			errContains: "imported project name does not match import name",
		},
		{
			name: "imported project without name",
			files: map[string]string{
				".":   "imports:\n  lib: lib\n",
				"lib": "targets: {}\n",
			},
			errContains: "missing project name",
		},
		{
			name:        "missing import",
			files:       map[string]string{".": "imports:\n  lib: lib\n"},
			errContains: "failed to read config file",
		},
		{
			name: "same project from two directories",
			files: map[string]string{
				".":    "imports:\n  lib: lib\n  lib2: lib2\n",
				"lib":  "name: lib\n",
				"lib2": "name: lib2\nimports:\n  lib: ../lib3\n",
				"lib3": "name: lib\n",
			},
			errContains: "project name is declared by two directories",
		},
		{
			name:        "parse error",
			files:       map[string]string{".": "targets: [\n"},
			errContains: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for rel, content := range tt.files {
				writeConfig(t, filepath.Join(dir, rel), content)
			}

			_, err := newLoader(t).Load(dir)
			require.ErrorContains(t, err, tt.errContains)
		})
	}
}

func TestLoader_Load_NotFound(t *testing.T) {
	_, err := newLoader(t).Load(t.TempDir())
	require.ErrorContains(t, err, "could not find weft.yaml")
}
