package eval

import (
	"io"
	"os"
	"os/exec"

	"wpcsh/internal/parse"
)

// Runner executes parsed statements against one session state. The zero
// value is not usable; construct with NewRunner.
type Runner struct {
	State *State

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	exitRequested bool
	exitCode      int
}

// NewRunner wires a runner to the given state and standard streams.
func NewRunner(st *State, stdin io.Reader, stdout, stderr io.Writer) *Runner {
	return &Runner{State: st, Stdin: stdin, Stdout: stdout, Stderr: stderr}
}

// ExitRequested reports whether an executed exit builtin asked the shell
// to terminate.
func (r *Runner) ExitRequested() bool { return r.exitRequested }

// ExitCode is the code requested by the exit builtin.
func (r *Runner) ExitCode() int { return r.exitCode }

// Execute parses and runs one line of input. The returned status is the
// status of the last command run; it is recorded in the state either way.
// A non-nil error reports a failure worth showing the user, not a command
// exiting non-zero.
func (r *Runner) Execute(line string) (int, error) {
	node, err := parse.Parse(line)
	if err != nil {
		return r.State.ExitStatus, errf(ErrInvalidInput, "syntax error: %v", err)
	}
	if node == nil {
		return r.State.ExitStatus, nil
	}
	return r.Run(node)
}

// Run executes one statement tree, recording its status as $?.
func (r *Runner) Run(n *parse.Node) (int, error) {
	status, err := r.run(n)
	r.State.ExitStatus = status
	return status, err
}

// handlers dispatches on node kind. Kinds absent from the table parse into
// a complete tree and are rejected here with an explicit unsupported error
// instead of being half-run. Filled in init to break the reference cycle
// with runList.
var handlers map[parse.Kind]func(*Runner, *parse.Node) (int, error)

func init() {
	handlers = map[parse.Kind]func(*Runner, *parse.Node) (int, error){
		parse.KCommand:  (*Runner).runCommand,
		parse.KPipeline: (*Runner).runPipeline,
		parse.KList:     (*Runner).runList,
		parse.KExport:   (*Runner).runExport,
		parse.KComment:  (*Runner).runComment,
	}
}

func (r *Runner) run(n *parse.Node) (int, error) {
	h, ok := handlers[n.Kind]
	if !ok {
		return 1, errf(ErrUnsupported, "unsupported construct: %s", n.Kind)
	}
	return h(r, n)
}

func (r *Runner) runList(n *parse.Node) (int, error) {
	status := r.State.ExitStatus
	for i, stmt := range n.List {
		if i > 0 {
			switch n.Seps[i-1] {
			case parse.SepAnd:
				if status != 0 {
					continue
				}
			case parse.SepOr:
				if status == 0 {
					continue
				}
			}
		}
		if i < len(n.Seps) && n.Seps[i] == parse.SepBg {
			return status, errf(ErrUnsupported, "unsupported construct: background job")
		}
		var err error
		status, err = r.run(stmt)
		r.State.ExitStatus = status
		if err != nil {
			return status, err
		}
		if r.exitRequested {
			return status, nil
		}
	}
	return status, nil
}

func (r *Runner) runComment(n *parse.Node) (int, error) {
	return r.State.ExitStatus, nil
}

func (r *Runner) runExport(n *parse.Node) (int, error) {
	args, err := r.State.ExpandWords(n.Words)
	if err != nil {
		return 1, err
	}
	return builtinExport(r.Stdin, r.Stdout, r.Stderr, args, r)
}

// runCommand executes one simple command: expand the name, resolve aliases,
// expand the arguments, then dispatch to a builtin or an external process.
func (r *Runner) runCommand(n *parse.Node) (int, error) {
	name, err := r.State.ExpandWord(n.Word)
	if err != nil {
		return 1, err
	}
	argv, err := r.State.ResolveAlias(name)
	if err != nil {
		return 1, err
	}
	rest, err := r.State.ExpandWords(n.Words)
	if err != nil {
		return 1, err
	}
	argv = append(argv, rest...)
	if len(argv) == 0 || argv[0] == "" {
		return r.State.ExitStatus, nil
	}

	stdin, stdout := r.Stdin, r.Stdout
	files, err := r.State.applyRedirs(n.Redirs, &stdin, &stdout)
	if err != nil {
		return 1, err
	}
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	if builtin, ok := builtins[argv[0]]; ok {
		return builtin(stdin, stdout, r.Stderr, argv[1:], r)
	}
	return r.runExternal(argv, stdin, stdout, r.Stderr)
}

func (r *Runner) runExternal(argv []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	path, ok := r.State.LookPath(argv[0])
	if !ok {
		return 127, errf(ErrNotFound, "command not found: %s", argv[0])
	}
	cmd := exec.Command(path, argv[1:]...)
	cmd.Args[0] = argv[0]
	cmd.Dir = r.State.Cwd
	cmd.Env = r.State.Environ()
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return exitStatus(err), nil
		}
		return spawnFailure, errf(ErrNotFound, "cannot run %s: %v", argv[0], err)
	}
	return 0, nil
}

// runPipeline connects the stages with OS pipes, starts every stage, then
// waits in order. All stages run as external processes; the pipeline's
// status is the status of its last stage.
func (r *Runner) runPipeline(n *parse.Node) (int, error) {
	cmds := make([]*exec.Cmd, 0, len(n.List))
	var toClose []io.Closer
	closeAll := func() {
		for _, c := range toClose {
			c.Close()
		}
	}

	prevReader := r.Stdin
	for i, node := range n.List {
		argv, stdin, stdout, files, err := r.prepareStage(node)
		if err != nil {
			closeAll()
			return 1, err
		}
		toClose = append(toClose, files...)
		if _, ok := builtins[argv[0]]; ok {
			// Builtins mutate session state and have no process to
			// pipe; inside a pipeline the name must resolve
			// externally or not at all.
			closeAll()
			return 127, errf(ErrNotFound, "command not found in pipeline: %s", argv[0])
		}
		path, ok := r.State.LookPath(argv[0])
		if !ok {
			closeAll()
			return 127, errf(ErrNotFound, "command not found: %s", argv[0])
		}

		cmd := exec.Command(path, argv[1:]...)
		cmd.Args[0] = argv[0]
		cmd.Dir = r.State.Cwd
		cmd.Env = r.State.Environ()
		cmd.Stderr = r.Stderr
		if stdin != nil {
			cmd.Stdin = stdin
		} else {
			cmd.Stdin = prevReader
		}
		if i == len(n.List)-1 {
			if stdout != nil {
				cmd.Stdout = stdout
			} else {
				cmd.Stdout = r.Stdout
			}
		} else {
			pr, pw, err := os.Pipe()
			if err != nil {
				closeAll()
				return 1, errf(ErrInterrupted, "pipe: %v", err)
			}
			toClose = append(toClose, pr, pw)
			if stdout != nil {
				cmd.Stdout = stdout
			} else {
				cmd.Stdout = pw
			}
			prevReader = pr
		}
		cmds = append(cmds, cmd)
	}

	started := 0
	var startErr error
	for _, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			startErr = errf(ErrNotFound, "cannot run %s: %v", cmd.Args[0], err)
			break
		}
		started++
	}
	// The parent's pipe copies must close so readers see EOF once their
	// upstream writer exits.
	closeAll()

	status := 0
	for i := 0; i < started; i++ {
		err := cmds[i].Wait()
		if i == started-1 && startErr == nil {
			status = exitStatus(err)
		}
	}
	if startErr != nil {
		return spawnFailure, startErr
	}
	return status, nil
}

// prepareStage expands one pipeline stage and opens its redirects without
// running anything.
func (r *Runner) prepareStage(n *parse.Node) (argv []string, stdin io.Reader, stdout io.Writer, files []io.Closer, err error) {
	if n.Kind != parse.KCommand {
		return nil, nil, nil, nil, errf(ErrUnsupported, "unsupported construct: %s in pipeline", n.Kind)
	}
	name, err := r.State.ExpandWord(n.Word)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	argv, err = r.State.ResolveAlias(name)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	rest, err := r.State.ExpandWords(n.Words)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	argv = append(argv, rest...)
	if len(argv) == 0 || argv[0] == "" {
		return nil, nil, nil, nil, errf(ErrInvalidInput, "empty command in pipeline")
	}
	files, err = r.State.applyRedirs(n.Redirs, &stdin, &stdout)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return argv, stdin, stdout, files, nil
}

const spawnFailure = 127

func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return spawnFailure
}
