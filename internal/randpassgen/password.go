/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randpassgen

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iacrypto/randpassgen/randpass"
)

func passwordCmd(opts *options) *cobra.Command {
	var (
		charsetSpec string
		charsetFile string
	)

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Generate random passwords.",
		Long: "Generates random passwords from a character set. The set is " +
			"selected by --charset, where a lowercase letter adds lowercase, an " +
			"uppercase letter adds uppercase, a digit adds digits, and any other " +
			"character adds basic punctuation. A --charset-file of literal " +
			"characters takes precedence. Without either, a 64 character set " +
			"with visually ambiguous characters removed is used.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withGenerator(func(g *randpass.Generator) error {
				var file io.Reader
				if charsetFile != "" {
					f, err := os.Open(charsetFile)
					if err != nil {
						return errors.Wrapf(err, "opening charset file %s", charsetFile)
					}
					defer f.Close()
					file = f
				}

				n, err := g.GeneratePasswords(opts.count, opts.strength, charsetSpec, file)
				if err != nil {
					return err
				}
				logger.Infof("wrote %d passwords", n)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&charsetSpec, "charset", "c", "", "Character set selection string, e.g. aA9.")
	flags.StringVar(&charsetFile, "charset-file", "", "File whose characters form the password alphabet")

	return cmd
}
