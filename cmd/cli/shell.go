package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/amirasaad/fxconverter/pkg/converter"
	"github.com/fatih/color"
)

var errQuit = errors.New("quit")

const helpText = `Commands:
  amount <text>   set the amount (blank clears it)
  from <code>     set the source currency
  to <code>       set the target currency
  swap            swap source and target
  show            render the converter again
  currencies      list selectable currencies
  help            show this help
  quit            exit`

var (
	resultColor  = color.New(color.FgGreen, color.Bold)
	pendingColor = color.New(color.FgYellow)
	failedColor  = color.New(color.FgRed)
	faintColor   = color.New(color.Faint)
	promptColor  = color.New(color.FgCyan, color.Bold)
)

// shell is a line-oriented front end for one converter view.
type shell struct {
	view *converter.Converter
	out  io.Writer
}

func newShell(view *converter.Converter, out io.Writer) *shell {
	return &shell{view: view, out: out}
}

func (s *shell) run(in io.Reader) error {
	s.view.Wait()
	s.render()
	fmt.Fprintln(s.out, faintColor.Sprint("Type 'help' for commands."))

	scanner := bufio.NewScanner(in)
	for {
		promptColor.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if err := s.execute(scanner.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			failedColor.Fprintln(s.out, "Error:", err)
		}
	}
}

// execute runs one command line and renders the view when it changed.
func (s *shell) execute(line string) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch strings.ToLower(cmd) {
	case "":
		return nil
	case "amount":
		err = s.view.SetAmount(arg)
	case "from":
		err = s.view.SetSource(arg)
	case "to":
		err = s.view.SetTarget(arg)
	case "swap":
		err = s.view.Swap()
	case "show":
	case "currencies":
		for _, meta := range s.view.Currencies().List() {
			fmt.Fprintf(s.out, "  %s (%s)\n", meta.Label(), meta.Symbol)
		}
		return nil
	case "help":
		fmt.Fprintln(s.out, helpText)
		return nil
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}
	s.view.Wait()
	s.render()
	return nil
}

func (s *shell) render() {
	snap := s.view.Snapshot()

	line := converter.ResultLine(snap)
	switch snap.Result.Status {
	case converter.StatusAvailable:
		resultColor.Fprintln(s.out, line)
	case converter.StatusPending:
		pendingColor.Fprintln(s.out, line, "(updating)")
	case converter.StatusFailed:
		failedColor.Fprintf(s.out, "%s (stale: %s)\n", line, snap.Result.Error)
	default:
		fmt.Fprintln(s.out, line)
	}

	if snap.ReferenceRate.Status == converter.StatusFailed {
		failedColor.Fprintln(s.out, "Reference rate unavailable")
	} else {
		fmt.Fprintln(s.out, converter.ReferenceLine(snap))
	}
	fmt.Fprintln(s.out, faintColor.Sprint(converter.Notice))
}
