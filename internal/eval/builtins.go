package eval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Builtin is a command implemented inside the shell process. Builtins see
// the streams left after redirection and run against the live session
// state, which is what lets cd and export outlive the command.
type Builtin func(stdin io.Reader, stdout, stderr io.Writer, args []string, r *Runner) (int, error)

var builtins = map[string]Builtin{
	"cd":     builtinCd,
	"exit":   builtinExit,
	"export": builtinExport,
	"alias":  builtinAlias,
	"source": builtinSource,
	"clear":  builtinClear,
}

func builtinCd(stdin io.Reader, stdout, stderr io.Writer, args []string, r *Runner) (int, error) {
	if len(args) > 1 {
		return 1, errf(ErrInvalidInput, "cd: too many arguments")
	}
	dest := r.State.Home
	if len(args) == 1 {
		dest = args[0]
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(r.State.Cwd, dest)
	}
	dest = filepath.Clean(dest)
	info, err := os.Stat(dest)
	if err != nil {
		return 1, errf(ErrInvalidInput, "cd: %s: no such file or directory", dest)
	}
	if !info.IsDir() {
		return 1, errf(ErrInvalidInput, "cd: %s: not a directory", dest)
	}
	if err := os.Chdir(dest); err != nil {
		return 1, errf(ErrInvalidInput, "cd: %s: %v", dest, err)
	}
	r.State.Cwd = dest
	r.State.SetVar("PWD", dest)
	return 0, nil
}

func builtinExit(stdin io.Reader, stdout, stderr io.Writer, args []string, r *Runner) (int, error) {
	code := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return 1, errf(ErrInvalidInput, "exit: %s: numeric argument required", args[0])
		}
		code = n
	}
	r.exitRequested = true
	r.exitCode = code
	return code, nil
}

func builtinExport(stdin io.Reader, stdout, stderr io.Writer, args []string, r *Runner) (int, error) {
	for _, arg := range args {
		name, val, ok := strings.Cut(arg, "=")
		if name == "" {
			return 1, errf(ErrInvalidInput, "export: %s: not a valid identifier", arg)
		}
		if !ok {
			// Every variable is already passed to children; a bare
			// name only has to exist.
			if _, exists := r.State.Var(name); !exists {
				r.State.SetVar(name, "")
			}
			continue
		}
		r.State.SetVar(name, val)
	}
	return 0, nil
}

func builtinAlias(stdin io.Reader, stdout, stderr io.Writer, args []string, r *Runner) (int, error) {
	if len(args) == 0 {
		names := make([]string, 0, len(r.State.Aliases))
		for name := range r.State.Aliases {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(stdout, "alias %s='%s'\n", name, r.State.Aliases[name])
		}
		return 0, nil
	}
	status := 0
	for _, arg := range args {
		name, repl, ok := strings.Cut(arg, "=")
		if !ok {
			repl, exists := r.State.Aliases[arg]
			if !exists {
				fmt.Fprintf(stderr, "alias: %s: not found\n", arg)
				status = 1
				continue
			}
			fmt.Fprintf(stdout, "alias %s='%s'\n", arg, repl)
			continue
		}
		if name == "" {
			return 1, errf(ErrInvalidInput, "alias: %s: not a valid alias name", arg)
		}
		r.State.Aliases[name] = repl
	}
	return status, nil
}

func builtinSource(stdin io.Reader, stdout, stderr io.Writer, args []string, r *Runner) (int, error) {
	if len(args) != 1 {
		return 1, errf(ErrInvalidInput, "source: expected one file argument")
	}
	f, err := r.State.Fs.Open(args[0])
	if err != nil {
		return 1, errf(ErrNotFound, "source: %s: %v", args[0], err)
	}
	defer f.Close()
	return r.RunScript(f)
}

func builtinClear(stdin io.Reader, stdout, stderr io.Writer, args []string, r *Runner) (int, error) {
	fmt.Fprint(stdout, "\x1b[2J\x1b[1;1H")
	return 0, nil
}

// RunScript executes a script line by line, skipping blank lines and
// comment lines, and stops at the first failing line or an exit request.
func (r *Runner) RunScript(src io.Reader) (int, error) {
	scanner := bufio.NewScanner(src)
	status := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var err error
		status, err = r.Execute(line)
		if err != nil {
			return status, err
		}
		if r.exitRequested {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return 1, errf(ErrInvalidInput, "read script: %v", err)
	}
	return status, nil
}
