package eval

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"wpcsh/internal/parse"
)

// Names of the files the shell reads from the home directory.
const (
	LoginConfigFile       = ".wpcsh_profile"
	InteractiveConfigFile = ".wpcshrc"
	HistoryFile           = ".wpcsh_history"
)

// Prompt renders the interactive prompt. When the PROMPT variable is set
// its value is executed as a command and the output, minus the final
// newline, becomes the prompt; anything going wrong falls back to the
// plain "cwd > " form.
func (r *Runner) Prompt() string {
	command, ok := r.State.Var("PROMPT")
	if !ok || strings.TrimSpace(command) == "" {
		return r.defaultPrompt()
	}
	node, err := parse.ParsePipeline(command)
	if err != nil || node == nil {
		return r.defaultPrompt()
	}
	var out bytes.Buffer
	sub := NewRunner(r.State, strings.NewReader(""), &out, io.Discard)
	saved := r.State.ExitStatus
	_, runErr := sub.Run(node)
	r.State.ExitStatus = saved
	if runErr != nil {
		return r.defaultPrompt()
	}
	prompt := strings.TrimSuffix(out.String(), "\n")
	if prompt == "" {
		return r.defaultPrompt()
	}
	return prompt
}

func (r *Runner) defaultPrompt() string {
	return r.State.Cwd + " > "
}

// LoadLoginConfig runs the profile read by login shells. A missing file is
// not an error.
func (r *Runner) LoadLoginConfig() error {
	return r.loadConfig(LoginConfigFile)
}

// LoadInteractiveConfig runs the rc file read by interactive shells. A
// missing file is not an error.
func (r *Runner) LoadInteractiveConfig() error {
	return r.loadConfig(InteractiveConfigFile)
}

func (r *Runner) loadConfig(name string) error {
	path := filepath.Join(r.State.Home, name)
	f, err := r.State.Fs.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	if _, err := r.RunScript(f); err != nil {
		return errf(ErrInvalidInput, "%s: %v", name, err)
	}
	return nil
}

// HistoryPath is where the interactive shell persists its input history.
func (r *Runner) HistoryPath() string {
	return filepath.Join(r.State.Home, HistoryFile)
}
