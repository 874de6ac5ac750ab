/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randpassgen

import (
	"github.com/spf13/cobra"

	"github.com/iacrypto/randpassgen/randpass"
)

func decryptCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "decrypt <file.enc>",
		Short: "Decrypt an encrypted key file.",
		Long: "Unwraps a key file produced by 'key --encrypt-password' and " +
			"writes the recovered key next to it with a _decrypted.txt suffix.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encPath := args[0]
			outPath := encPath + "_decrypted.txt"
			if err := randpass.DecryptKeyFile(password, encPath, outPath); err != nil {
				return err
			}
			logger.Infof("decrypted %s to %s", encPath, outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password the key was encrypted under (required)")
	cobra.MarkFlagRequired(cmd.Flags(), "password")

	return cmd
}
