/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/urfave/cli/v3"

	"github.com/azctl/azctl/pkg/errors"
)

// maxSuggestionDistance is the largest edit distance still offered as a suggestion.
const maxSuggestionDistance = 2

// suggestCommands returns the visible subcommands of cmd closest to typed.
func suggestCommands(cmd *cli.Command, typed string) []string {
	type candidate struct {
		name     string
		distance int
	}
	var candidates []candidate
	for _, sub := range cmd.Commands {
		if sub.Hidden {
			continue
		}
		best := -1
		for _, n := range append([]string{sub.Name}, sub.Aliases...) {
			d := levenshtein.ComputeDistance(strings.ToLower(typed), strings.ToLower(n))
			if best < 0 || d < best {
				best = d
			}
		}
		if best <= maxSuggestionDistance || strings.HasPrefix(sub.Name, typed) {
			candidates = append(candidates, candidate{name: sub.Name, distance: best})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].name < candidates[j].name
	})

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.name)
	}
	return out
}

func unknownCommandError(cmd *cli.Command, typed string) error {
	msg := fmt.Sprintf("'%s' is misspelled or not recognized by the system.", typed)
	if suggestions := suggestCommands(cmd, typed); len(suggestions) > 0 {
		msg += fmt.Sprintf("\n\nDid you mean '%s %s'?", cmd.FullName(), suggestions[0])
		if len(suggestions) > 1 {
			msg += fmt.Sprintf(" Other close matches: %s.", strings.Join(suggestions[1:], ", "))
		}
	}
	msg += fmt.Sprintf("\nSee '%s --help'.", cmd.FullName())
	return errors.New(errors.ErrCodeArgumentUsage, msg)
}
