package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/regioinvent/pkg/errors"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestNewRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "regioinvent", cmd.Use)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"run", "reset", "spatialize", "methods", "trade", "tables", "events", "serve", "version"} {
		assert.True(t, names[want], want)
	}
	for _, flag := range []string{"config", "log-level", "output", "verbose", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestVersionCmd_NeedsNoConfig(t *testing.T) {
	Version, GitCommit = "1.4.0", "abc123"
	defer func() { Version, GitCommit = "dev", "unknown" }()

	out, _, err := execute(t, "version", "--config", "/does/not/exist.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "regioinvent 1.4.0 (commit: abc123")
}

func TestVersionCmd_JSON(t *testing.T) {
	out, _, err := execute(t, "version", "-o", "json")
	require.NoError(t, err)
	var info BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestConfigCommand_MissingFile(t *testing.T) {
	_, _, err := execute(t, "tables", "validate", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidConfig))
}

func TestConfigCommand_InvalidCutoffInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regioinvent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"regionalization:",
		"  source_database: ecoinvent",
		"  version: '3.10'",
		"  cutoff: 1.5",
		"  output_database: Regioinvent",
		"neo4j:",
		"  uri: bolt://localhost:7687",
	}, "\n")), 0o600))

	_, _, err := execute(t, "tables", "validate", "--config", path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCutoff))
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

func TestPrintError(t *testing.T) {
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetErr(&buf)

	PrintError(cmd, errors.New(errors.ErrCodeUnknownDatabase, "source database not found").WithDetail("ei-3.10"))
	assert.Equal(t, "Error [CONFIG_003]: source database not found\n  ei-3.10\n", buf.String())

	buf.Reset()
	PrintError(cmd, assert.AnError)
	assert.Equal(t, "Error: "+assert.AnError.Error()+"\n", buf.String())
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"NAME", "N"}, [][]string{{"clone", "12"}, {"market"}})
	assert.Equal(t, "NAME    N \n------  --\nclone   12\nmarket    \n", out)
	assert.Empty(t, FormatTable(nil, nil))
}

//Personal.AI order the ending
