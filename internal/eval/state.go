package eval

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// State is the mutable session state shared by every command the shell
// runs: working directory, variables, aliases, and the status of the last
// command. File reads (rc files, redirect targets, sourced scripts) go
// through Fs so tests can run against an in-memory filesystem.
type State struct {
	Home       string
	Cwd        string
	Vars       map[string]string
	Aliases    map[string]string
	ExitStatus int
	Fs         afero.Fs
}

// NewState builds the session state for a fresh shell: variables seeded
// from the process environment with PWD, HOME and SHELL overwritten, and
// the working directory moved to the user's home.
func NewState() (*State, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errf(ErrNotFound, "cannot determine home directory: %v", err)
	}
	st := &State{
		Home:    home,
		Cwd:     home,
		Vars:    make(map[string]string),
		Aliases: make(map[string]string),
		Fs:      afero.NewOsFs(),
	}
	for _, kv := range os.Environ() {
		name, val, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		st.Vars[name] = val
	}
	st.Vars["PWD"] = home
	st.Vars["HOME"] = home
	if exe, err := os.Executable(); err == nil {
		st.Vars["SHELL"] = exe
	}
	if err := os.Chdir(home); err != nil {
		return nil, errf(ErrNotFound, "cannot enter home directory: %v", err)
	}
	return st, nil
}

// Var looks up a variable. The name "?" resolves to the status of the last
// command and is never stored in the map.
func (st *State) Var(name string) (string, bool) {
	if name == "?" {
		return strconv.Itoa(st.ExitStatus), true
	}
	val, ok := st.Vars[name]
	return val, ok
}

// SetVar stores a variable, ignoring attempts to write the "?" status.
func (st *State) SetVar(name, val string) {
	if name == "?" {
		return
	}
	st.Vars[name] = val
}

// Environ renders the variables as a sorted NAME=VALUE list for child
// processes.
func (st *State) Environ() []string {
	env := make([]string, 0, len(st.Vars))
	for name, val := range st.Vars {
		env = append(env, name+"="+val)
	}
	sort.Strings(env)
	return env
}
