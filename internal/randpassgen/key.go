/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randpassgen

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iacrypto/randpassgen/randpass"
)

func keyCmd(opts *options) *cobra.Command {
	var encryptPassword string

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Generate random hex keys.",
		Long: "Generates random keys as hex strings, each followed by a key ID " +
			"built from the generation time and a hash of the key. Key IDs are " +
			"also recorded in the log. With --encrypt-password, each key is " +
			"additionally wrapped under the password into a <keyID>.enc file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if encryptPassword != "" && len(encryptPassword) < randpass.MinWrapPasswordLength {
				return errors.Errorf("encryption password must be at least %d characters", randpass.MinWrapPasswordLength)
			}
			return opts.withGenerator(func(g *randpass.Generator) error {
				n, err := g.GenerateKeys(opts.count, opts.strength, encryptPassword)
				if err != nil {
					return err
				}
				logger.Infof("wrote %d keys", n)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&encryptPassword, "encrypt-password", "", "Wrap each key under this password into a <keyID>.enc file")

	return cmd
}
