/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randpassgen

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/iacrypto/randpassgen/common/metadata"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print randpassgen version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s:\n Version: %s\n Commit SHA: %s\n Go version: %s\n OS/Arch: %s\n",
				cmdName, metadata.Version, metadata.CommitSHA, runtime.Version(),
				fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH))
			return nil
		},
	}
}
