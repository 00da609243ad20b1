package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"golang.org/x/term"

	"wpcsh/internal/eval"
)

func main() {
	command := flag.String("c", "", "run the given command and exit")
	flag.Parse()

	state, err := eval.NewState()
	if err != nil {
		fmt.Fprintf(os.Stderr, "wpcsh: %v\n", err)
		os.Exit(1)
	}
	runner := eval.NewRunner(state, os.Stdin, os.Stdout, os.Stderr)

	// A leading dash in argv[0] marks a login shell.
	if strings.HasPrefix(os.Args[0], "-") {
		if err := runner.LoadLoginConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "wpcsh: %v\n", err)
		}
	}

	if *command != "" {
		status, err := runner.Execute(*command)
		if err != nil {
			fmt.Fprintf(os.Stderr, "wpcsh: %v\n", err)
			if status == 0 {
				status = 1
			}
		}
		if runner.ExitRequested() {
			status = runner.ExitCode()
		}
		os.Exit(status)
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		runInteractive(runner)
		return
	}
	runScript(runner, os.Stdin)
}

func runScript(runner *eval.Runner, rd io.Reader) {
	status, err := runner.RunScript(rd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wpcsh: %v\n", err)
		os.Exit(1)
	}
	if runner.ExitRequested() {
		os.Exit(runner.ExitCode())
	}
	os.Exit(status)
}

func runInteractive(runner *eval.Runner) {
	if err := runner.LoadInteractiveConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "wpcsh: %v\n", err)
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := runner.HistoryPath()
	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	// ^C during a running command must not kill the shell itself.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)
	go func() {
		for range sigc {
		}
	}()

	errPrint := color.New(color.FgRed)
	for {
		input, err := line.Prompt(runner.Prompt())
		if err == liner.ErrPromptAborted {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		if _, err := runner.Execute(input); err != nil {
			var evalErr *eval.Error
			if errors.As(err, &evalErr) {
				errPrint.Fprintf(os.Stderr, "wpcsh: %s\n", evalErr.Msg)
			} else {
				errPrint.Fprintf(os.Stderr, "wpcsh: %v\n", err)
			}
		}
		if runner.ExitRequested() {
			saveHistory(line, historyPath)
			os.Exit(runner.ExitCode())
		}
	}

	saveHistory(line, historyPath)
}

func saveHistory(line *liner.State, path string) {
	if f, err := os.Create(path); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}
