package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/peterh/liner"

	"letc/pkg/compiler"
)

const (
	historyFile = ".letc_history"
	promptMain  = "letc> "
	promptCont  = "  ... "
	sessionName = "console"
)

const helpText = `Commands:
  :ast     Print the instructions entered so far
  :reset   Forget every instruction
  :help    Show this text
  :quit    Exit (Ctrl+D also exits)`

// session holds the instructions accepted so far. Each new input is compiled
// together with them, so variables persist between lines.
type session struct {
	opts  compiler.Options
	nodes []compiler.Node
}

// add compiles src after the accepted instructions and keeps it only when
// the whole program still compiles. It returns the program's IR.
func (s *session) add(src string) (string, error) {
	nodes, err := compiler.ParseAll(src)
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", nil
	}
	all := append(slices.Clone(s.nodes), nodes...)
	ir, err := compiler.GenerateProgram(sessionName, all, s.opts)
	if err != nil {
		return "", err
	}
	s.nodes = all
	return ir, nil
}

func (s *session) reset() {
	s.nodes = nil
}

func (s *session) dump(w io.Writer) {
	if len(s.nodes) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}
	for i, n := range s.nodes {
		fmt.Fprintf(w, "%3d  %s\n", i+1, n)
	}
}

// command runs a ":" command and reports whether the console should exit.
func (s *session) command(cmd string, w io.Writer) (quit bool) {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case ":quit", ":q":
		return true
	case ":reset":
		s.reset()
		fmt.Fprintln(w, "session cleared")
	case ":ast":
		s.dump(w)
	case ":help":
		fmt.Fprintln(w, helpText)
	default:
		fmt.Fprintf(w, "unknown command %q; type :help\n", cmd)
	}
	return false
}

// incomplete reports whether src fails only because it ended too early,
// e.g. an open block, so the console should keep reading lines.
func incomplete(src string) bool {
	_, err := compiler.ParseAll(src)
	var pe *compiler.ParseError
	return errors.As(err, &pe) && pe.Incomplete()
}

// historyPath returns the history file in the user's home directory. ok is
// false when the home directory is unknown.
func historyPath(homeDir func() (string, error)) (path string, ok bool) {
	home, err := homeDir()
	if err != nil || home == "" {
		return "", false
	}
	return filepath.Join(home, historyFile), true
}

// readInput prompts until the collected lines parse or fail for a reason
// other than running out of input. ok is false on EOF.
func readInput(ln *liner.State) (src string, ok bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			log.Print(err)
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if strings.HasPrefix(strings.TrimSpace(b.String()), ":") || !incomplete(b.String()) {
			return b.String(), true
		}
	}
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("letc: ")

	trapDiv := flag.Bool("trap-div", true, "trap at runtime on division by zero or overflow")
	flag.Parse()

	s := &session{opts: compiler.DefaultOptions()}
	s.opts.TrapDivision = *trapDiv

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if histPath, ok := historyPath(os.UserHomeDir); ok {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	} else {
		log.Print("no home directory; history will not be saved")
	}

	fmt.Println("letc console. Ctrl+C cancels input, Ctrl+D exits. Type :help for commands.")
	for {
		src, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			if s.command(src, os.Stdout) {
				return
			}
			continue
		}

		ir, err := s.add(src)
		if err != nil {
			log.Print(err)
			continue
		}
		fmt.Print(ir)
	}
}
