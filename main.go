// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/reqsplit/reqsplit/cmd/reqsplit"

func main() {
	cmd.Execute()
}
