/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package main is the entrypoint for the randpassgen binary and only
// dispatches into the command tree.
package main

import (
	"os"

	"github.com/iacrypto/randpassgen/internal/randpassgen"
)

func main() {
	if err := randpassgen.Command().Execute(); err != nil {
		os.Exit(1)
	}
}
