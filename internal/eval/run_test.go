package eval

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// needCmds skips a test when the external commands it drives are missing.
func needCmds(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not available", name)
		}
	}
}

func TestRunExternalCommand(t *testing.T) {
	needCmds(t, "echo")
	r, out := testRunner(t)
	status, err := r.Execute("echo hello world")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "hello world\n", out.String())
}

func TestRunCommandNotFound(t *testing.T) {
	r, _ := testRunner(t)
	status, err := r.Execute("definitely-not-a-command-xyz")
	assert.Equal(t, 127, status)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 127, r.State.ExitStatus)
}

func TestRunRecordsExitStatus(t *testing.T) {
	needCmds(t, "false", "echo")
	r, out := testRunner(t)
	status, err := r.Execute("false")
	require.NoError(t, err)
	assert.Equal(t, 1, status)

	status, err = r.Execute("echo $?")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "1\n", out.String())

	// The status updates between statements of one list too.
	out.Reset()
	_, err = r.Execute("false; echo $?")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out.String())
}

func TestRunPipeline(t *testing.T) {
	needCmds(t, "printf", "sort")
	r, out := testRunner(t)
	status, err := r.Execute(`printf 'b\na\n' | sort`)
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "a\nb\n", out.String())
}

func TestRunPipelineStatusIsLastStage(t *testing.T) {
	needCmds(t, "false", "true")
	r, _ := testRunner(t)
	status, err := r.Execute("false | true")
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	status, err = r.Execute("true | false")
	require.NoError(t, err)
	assert.Equal(t, 1, status)
}

func TestRunPipelineRejectsBuiltins(t *testing.T) {
	needCmds(t, "echo")
	r, _ := testRunner(t)
	status, err := r.Execute("echo hi | cd /")
	assert.Equal(t, 127, status)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunAndOrShortCircuit(t *testing.T) {
	needCmds(t, "true", "false", "echo")
	r, out := testRunner(t)

	_, err := r.Execute("false && echo skipped")
	require.NoError(t, err)
	assert.Empty(t, out.String())

	_, err = r.Execute("false || echo ran")
	require.NoError(t, err)
	assert.Equal(t, "ran\n", out.String())

	out.Reset()
	_, err = r.Execute("true && echo ran")
	require.NoError(t, err)
	assert.Equal(t, "ran\n", out.String())
}

func TestRunRedirects(t *testing.T) {
	needCmds(t, "echo")
	r, _ := testRunner(t)
	r.State.Fs = afero.NewOsFs()
	path := filepath.Join(t.TempDir(), "out.txt")

	_, err := r.Execute("echo one > " + path)
	require.NoError(t, err)
	_, err = r.Execute("echo two >> " + path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestRunInputRedirect(t *testing.T) {
	needCmds(t, "sort")
	r, out := testRunner(t)
	r.State.Fs = afero.NewOsFs()
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("b\na\n"), 0o644))

	status, err := r.Execute("sort < " + path)
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "a\nb\n", out.String())
}

func TestRunRedirectOpenFailure(t *testing.T) {
	needCmds(t, "sort")
	r, _ := testRunner(t)
	r.State.Fs = afero.NewOsFs()

	_, err := r.Execute("sort < /no/such/input.txt")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.Execute("sort > /no/such/dir/out.txt")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunAliasResolution(t *testing.T) {
	needCmds(t, "echo")
	r, out := testRunner(t)
	r.State.Aliases["say"] = "echo prefix"
	status, err := r.Execute("say hi")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "prefix hi\n", out.String())
}

func TestRunSyntaxError(t *testing.T) {
	r, _ := testRunner(t)
	r.State.ExitStatus = 9
	status, err := r.Execute("echo 'unterminated")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 9, status, "a line that never ran must not clobber $?")
}

func TestRunUnsupportedConstructs(t *testing.T) {
	r, _ := testRunner(t)
	cases := []string{
		"if true; then echo hi; fi",
		"for x in a b; do echo $x; done",
		"sleep 1 &",
		"(echo hi)",
		"greet() { echo hi; }",
	}
	for _, src := range cases {
		_, err := r.Execute(src)
		assert.ErrorIs(t, err, ErrUnsupported, "running %q", src)
	}
}

func TestRunCommentIsNoop(t *testing.T) {
	r, out := testRunner(t)
	r.State.ExitStatus = 4
	status, err := r.Execute("# just a note")
	require.NoError(t, err)
	assert.Equal(t, 4, status)
	assert.Empty(t, out.String())
}

func TestRunEmptyLine(t *testing.T) {
	r, _ := testRunner(t)
	r.State.ExitStatus = 3
	status, err := r.Execute("   ")
	require.NoError(t, err)
	assert.Equal(t, 3, status)
}

func TestRunScriptStopsOnError(t *testing.T) {
	r, _ := testRunner(t)
	script := "export A=1\nmissing-cmd-xyz\nexport B=1\n"
	status, err := r.RunScript(strings.NewReader(script))
	assert.Equal(t, 127, status)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "1", r.State.Vars["A"])
	_, set := r.State.Vars["B"]
	assert.False(t, set)
}

func TestRunListStopsAfterExit(t *testing.T) {
	r, _ := testRunner(t)
	status, err := r.Execute("exit 2; export LATE=1")
	require.NoError(t, err)
	assert.Equal(t, 2, status)
	_, set := r.State.Vars["LATE"]
	assert.False(t, set)
}
