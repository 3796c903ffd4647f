package cli

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
)

// MainLoop runs interactive prompt on terminal, otherwise executes stdin lines.
// onSignal is called once on interrupt, process exits after it returns.
func MainLoop(tag string, exec func(line string), complete prompt.Completer, onSignal func()) error {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		<-signalCh
		if onSignal != nil {
			onSignal()
		}
		os.Exit(1)
	}()

	if IsTerminal(os.Stdin) {
		prompt.New(exec, complete,
			prompt.OptionTitle(tag),
			prompt.OptionPrefix(tag+"> "),
		).Run()
		return nil
	}
	return Batch(os.Stdin, exec)
}

// Batch executes non-empty lines, '#' starts comment line.
func Batch(r io.Reader, exec func(line string)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		exec(line)
	}
	return errors.Annotate(scanner.Err(), "stdin")
}

func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PrefixCompleter suggests words starting with current word.
func PrefixCompleter(words func() []string) prompt.Completer {
	return func(d prompt.Document) []prompt.Suggest {
		w := d.GetWordBeforeCursor()
		if w == "" {
			return nil
		}
		all := words()
		ss := make([]prompt.Suggest, len(all))
		for i, s := range all {
			ss[i] = prompt.Suggest{Text: s}
		}
		return prompt.FilterHasPrefix(ss, w, true)
	}
}
