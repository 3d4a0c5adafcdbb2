/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package main

import "github.com/azctl/azctl/pkg/cli"

func main() {
	cli.Execute()
}
