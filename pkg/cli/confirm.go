/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/azctl/azctl/pkg/errors"
	"github.com/azctl/azctl/pkg/kubeconfig"
)

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks question unless --yes was given. Without a terminal it refuses to guess.
func confirm(cmd *cli.Command, question string) (bool, error) {
	if cmd.Bool(flagYes) {
		return true, nil
	}
	if !stdinIsTerminal() {
		return false, errors.New(errors.ErrCodeArgumentUsage,
			"Unable to prompt for confirmation as no tty available. Use --yes.")
	}
	return kubeconfig.TerminalPrompt(os.Stdin, cmd.Root().ErrWriter)(question)
}
