/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randpassgen

import (
	"github.com/spf13/cobra"

	"github.com/iacrypto/randpassgen/randpass"
)

func passphraseCmd(opts *options) *cobra.Command {
	var (
		wordlist     string
		maxWordLen   int
		randomUpcase int
	)

	cmd := &cobra.Command{
		Use:   "passphrase",
		Short: "Generate random passphrases from a word list.",
		Long: "Generates random passphrases by drawing words uniformly from a " +
			"word list file, one word per line. Enough words are drawn to carry " +
			"the requested strength.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withGenerator(func(g *randpass.Generator) error {
				f, err := randpass.ReadWordList(wordlist)
				if err != nil {
					return err
				}
				defer f.Close()

				n, err := g.GeneratePassphrases(opts.count, opts.strength, f, maxWordLen, randomUpcase)
				if err != nil {
					return err
				}
				logger.Infof("wrote %d passphrases", n)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&wordlist, "wordlist", "w", "", "Word list file, one word per line (required)")
	flags.IntVar(&maxWordLen, "max-word-length", randpass.MaxWordLength, "Longest word to use")
	flags.IntVar(&randomUpcase, "random-upcase", 0, "Randomly upcase up to this many leading letters of each word")
	cobra.MarkFlagRequired(flags, "wordlist")

	return cmd
}
