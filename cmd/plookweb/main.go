// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command plookweb serves the shared-transport REST API of PlookAraiD
// and provides its database and maintenance sub-commands.
package main

import "github.com/m33pooh/plookaraid/cmd/plookweb/command"

func main() {
	command.Execute()
}
