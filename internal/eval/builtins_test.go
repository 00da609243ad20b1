package eval

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r := NewRunner(testState(t), strings.NewReader(""), &out, &out)
	return r, &out
}

// keepCwd restores the process working directory after a test that uses cd.
func keepCwd(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestCdChangesDirectoryAndPWD(t *testing.T) {
	keepCwd(t)
	r, _ := testRunner(t)
	dir := t.TempDir()
	sub := filepath.Join(dir, "work")
	require.NoError(t, os.Mkdir(sub, 0o755))

	status, err := r.Execute("cd " + sub)
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, sub, r.State.Cwd)
	pwd, _ := r.State.Var("PWD")
	assert.Equal(t, sub, pwd)
	osCwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, sub, osCwd, "recorded cwd must mirror the process cwd")
}

func TestCdRelativePathIsCleaned(t *testing.T) {
	keepCwd(t)
	r, _ := testRunner(t)
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "a"), 0o755))
	r.State.Cwd = filepath.Join(dir, "a")
	require.NoError(t, os.Chdir(r.State.Cwd))

	status, err := r.Execute("cd ..")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, dir, r.State.Cwd)
}

func TestCdNoArgGoesHome(t *testing.T) {
	keepCwd(t)
	r, _ := testRunner(t)
	home := t.TempDir()
	r.State.Home = home

	status, err := r.Execute("cd")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, home, r.State.Cwd)
}

func TestCdErrors(t *testing.T) {
	keepCwd(t)
	r, _ := testRunner(t)

	status, err := r.Execute("cd /does/not/exist/anywhere")
	assert.Equal(t, 1, status)
	assert.ErrorIs(t, err, ErrInvalidInput)

	status, err = r.Execute("cd a b")
	assert.Equal(t, 1, status)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExitLatchesCode(t *testing.T) {
	r, _ := testRunner(t)
	status, err := r.Execute("exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, status)
	assert.True(t, r.ExitRequested())
	assert.Equal(t, 3, r.ExitCode())
}

func TestExitWithoutArgDefaultsToZero(t *testing.T) {
	r, _ := testRunner(t)
	r.State.ExitStatus = 5
	status, err := r.Execute("exit")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, 0, r.ExitCode())
}

func TestExitRejectsNonNumeric(t *testing.T) {
	r, _ := testRunner(t)
	status, err := r.Execute("exit soon")
	assert.Equal(t, 1, status)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.False(t, r.ExitRequested())
}

func TestExportSetsVariable(t *testing.T) {
	r, _ := testRunner(t)
	status, err := r.Execute(`export NAME="VALUE" N=1`)
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "VALUE", r.State.Vars["NAME"])
	assert.Equal(t, "1", r.State.Vars["N"])
}

func TestExportExpandsValue(t *testing.T) {
	r, _ := testRunner(t)
	r.State.Vars["BASE"] = "/opt"
	_, err := r.Execute("export DIR=$BASE/bin")
	require.NoError(t, err)
	assert.Equal(t, "/opt/bin", r.State.Vars["DIR"])
}

func TestAliasDefineAndList(t *testing.T) {
	r, out := testRunner(t)
	_, err := r.Execute("alias ll='ls -la'")
	require.NoError(t, err)
	assert.Equal(t, "ls -la", r.State.Aliases["ll"])

	out.Reset()
	_, err = r.Execute("alias")
	require.NoError(t, err)
	assert.Equal(t, "alias ll='ls -la'\n", out.String())
}

func TestAliasLookupMissing(t *testing.T) {
	r, out := testRunner(t)
	status, err := r.Execute("alias nope")
	require.NoError(t, err)
	assert.Equal(t, 1, status)
	assert.Contains(t, out.String(), "not found")
}

func TestSourceRunsFileSkippingComments(t *testing.T) {
	r, _ := testRunner(t)
	script := strings.Join([]string{
		"# setup",
		"",
		"export A=1",
		"   # indented comment",
		"alias ll='ls -la'",
	}, "\n")
	require.NoError(t, afero.WriteFile(r.State.Fs, "/script.sh", []byte(script), 0o644))

	status, err := r.Execute("source /script.sh")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "1", r.State.Vars["A"])
	assert.Equal(t, "ls -la", r.State.Aliases["ll"])
}

func TestSourceStopsAtExit(t *testing.T) {
	r, _ := testRunner(t)
	script := "export A=1\nexit 2\nexport B=1\n"
	require.NoError(t, afero.WriteFile(r.State.Fs, "/script.sh", []byte(script), 0o644))

	status, err := r.Execute("source /script.sh")
	require.NoError(t, err)
	assert.Equal(t, 2, status)
	assert.True(t, r.ExitRequested())
	assert.Equal(t, "1", r.State.Vars["A"])
	_, set := r.State.Vars["B"]
	assert.False(t, set)
}

func TestSourceMissingFile(t *testing.T) {
	r, _ := testRunner(t)
	status, err := r.Execute("source /nope.sh")
	assert.Equal(t, 1, status)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearWritesEscapeSequence(t *testing.T) {
	r, out := testRunner(t)
	status, err := r.Execute("clear")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "\x1b[2J\x1b[1;1H", out.String())
}
