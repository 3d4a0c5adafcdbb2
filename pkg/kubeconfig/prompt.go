package kubeconfig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalPrompt asks on out and reads the answer from in. It answers "no" without
// asking when in is not a terminal.
func TerminalPrompt(in *os.File, out io.Writer) PromptFunc {
	return func(question string) (bool, error) {
		if !term.IsTerminal(int(in.Fd())) {
			return false, nil
		}
		return readYesNo(in, out, question)
	}
}

func readYesNo(in io.Reader, out io.Writer, question string) (bool, error) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprintf(out, "%s (y/n): ", question)
		line, err := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if err != nil {
			if err == io.EOF {
				return false, nil
			}
			return false, err
		}
		fmt.Fprintln(out, "Please enter 'y' or 'n'.")
	}
}
