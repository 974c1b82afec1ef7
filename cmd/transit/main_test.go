package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/transit"
	"github.com/aretw0/transit/pkg/adapters/file"
	"github.com/aretw0/transit/pkg/domain"
	"github.com/aretw0/transit/pkg/options"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so runs do not leak into
// each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "transit version "+transit.Version+"\n", out)
}

func TestExec(t *testing.T) {
	out, err := run(t, "exec", "--platform=//platform:exec", "--",
		"--platforms=//platform:target",
		"--experimental_exec_configuration_distinguisher=diff_to_affected",
	)
	require.NoError(t, err)

	cfg, err := options.Decode(strings.NewReader(out))
	require.NoError(t, err)
	core, _ := cfg.Core()
	assert.True(t, core.IsExec)
	assert.Equal(t, "exec", core.PlatformSuffix)
	assert.Equal(t, []string{"is_exec", "platform_suffix", "platforms"}, core.AffectedByDynamicTransition)
}

func TestExec_FromDocument(t *testing.T) {
	doc := writeFile(t, "target.yaml", `
core:
  platform_suffix: mine
  experimental_exec_configuration_distinguisher: "off"
platform:
  platforms: ["//platform:target"]
`)
	out, err := run(t, "exec", "-i", doc, "-p", "//platform:exec", "-o", "json")
	require.NoError(t, err)

	var cfg domain.Configuration
	require.NoError(t, cfg.UnmarshalJSON([]byte(out)))
	core, _ := cfg.Core()
	assert.Equal(t, "mine", core.PlatformSuffix)
	assert.True(t, core.IsExec)
}

func TestExec_NoPlatform(t *testing.T) {
	want, err := options.Parse(domain.FragmentKinds())
	require.NoError(t, err)

	out, err := run(t, "exec", "-o", "checksum")
	require.NoError(t, err)
	assert.Equal(t, want.Checksum()+"\n", out)
}

func TestExec_Errors(t *testing.T) {
	_, err := run(t, "exec", "-p", "//platform:exec", "--", "--experimental_exec_configuration_distinguisher=bogus")
	assert.ErrorIs(t, err, domain.ErrUnknownDistinguisher)

	_, err = run(t, "exec", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")

	_, err = run(t, "exec", "-i", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, "exec", "--log-level=loud")
	assert.ErrorContains(t, err, "unknown log level")

	_, err = run(t, "exec", "--redis=localhost:1", "--store-dir", t.TempDir())
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestExec_StoreDir(t *testing.T) {
	dir := t.TempDir()
	for range 2 {
		_, err := run(t, "exec", "-p", "//platform:exec", "--store-dir", dir, "-o", "checksum")
		require.NoError(t, err)
	}

	keys, err := file.New(dir).List(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "exec(//platform:exec)/"))
}

func TestSettingsFile(t *testing.T) {
	dir := t.TempDir()
	settingsFile := writeFile(t, "transit.yaml", "store-dir: "+dir+"\nlog-level: error\n")

	_, err := run(t, "--config", settingsFile, "exec", "-p", "//platform:exec")
	require.NoError(t, err)

	keys, err := file.New(dir).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestSettingsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRANSIT_STORE_DIR", dir)

	_, err := run(t, "exec", "-p", "//platform:exec")
	require.NoError(t, err)

	keys, err := file.New(dir).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestDiff(t *testing.T) {
	out, err := run(t, "diff", "--plain", "-p", "//platform:exec", "--", "--platforms=//platform:target")
	require.NoError(t, err)
	assert.Contains(t, out, "core.is_exec: false -> true\n")
	assert.Contains(t, out, "platform.platforms: [//platform:target] -> [//platform:exec]\n")

	out, err = run(t, "diff", "--plain")
	require.NoError(t, err)
	assert.Equal(t, "no changes\n", out)
}

func TestExplain(t *testing.T) {
	out, err := run(t, "explain", "--raw", "-p", "//platform:exec", "--",
		"--experimental_exec_configuration_distinguisher=full_hash")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# exec(//platform:exec)\n"))
	assert.Contains(t, out, "**full_hash**")
}

func TestGraph(t *testing.T) {
	out, err := run(t, "graph", "-p", "//platform:a", "-p", "//platform:b")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `"exec(//platform:a) <br/> legacy"`)
	assert.Contains(t, out, `"exec(//platform:b) <br/> legacy"`)
	assert.Equal(t, 1, strings.Count(out, " current;"))
}

func TestValidate(t *testing.T) {
	good := writeFile(t, "good.yaml", "core:\n  is_exec: true\n")
	bad := writeFile(t, "bad.yaml", "core:\n  experimental_exec_configuration_distinguisher: sometimes\n")

	out, err := run(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+good)

	out, err = run(t, "validate", good, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownDistinguisher)
	assert.Contains(t, out, "✗ ")
	assert.Contains(t, err.Error(), "1 of 2 documents invalid")

	_, err = run(t, "validate")
	assert.Error(t, err)
}

func TestExec_ReadOnlyStore(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "exec", "-p", "//platform:exec", "--store-dir", dir, "--read-only", "-o", "checksum")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	keys, err := file.New(dir).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
