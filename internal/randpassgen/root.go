/*
Copyright the RandPassGen Authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package randpassgen implements the randpassgen command line tool, a
// conservative generator of random passwords, passphrases, and keys.
package randpassgen

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/iacrypto/randpassgen/common/flogging"
	"github.com/iacrypto/randpassgen/drbg"
	"github.com/iacrypto/randpassgen/randpass"
)

var logger = flogging.MustGetLogger("randpassgen")

const (
	cmdName   = "randpassgen"
	envPrefix = "RANDPASSGEN"
)

// options carries the flag and configuration values shared by the
// generation subcommands.
type options struct {
	count        int
	strength     int
	outputFile   string
	logFile      string
	loggingSpec  string
	verbose      bool
	entropyFile  string
	randomDevice string
	chunkSize    int
	chunkSep     string
}

// Command builds the randpassgen command tree.
func Command() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   cmdName,
		Short: "Generate random passwords, passphrases, and keys.",
		Long: "Generates random passwords, passphrases, and keys from a NIST " +
			"SP800-90 Hash DRBG seeded by the operating system random source. " +
			"Generation is refused unless the known-answer tests and self-tests pass.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd); err != nil {
				return err
			}
			return opts.initLogging()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVarP(&opts.count, "count", "n", 1, "Number of values to generate")
	flags.IntVarP(&opts.strength, "strength", "s", randpass.DefaultStrength, "Strength of each generated value in bits")
	flags.StringVarP(&opts.outputFile, "output", "o", "", "Write generated values to this file instead of stdout")
	flags.StringVar(&opts.logFile, "log-file", "", "Append log records to this file instead of stderr")
	flags.StringVar(&opts.loggingSpec, "logging-spec", "", "Logging level specification, e.g. info or randpass=debug:info")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.entropyFile, "entropy-file", "", "File providing startup entropy; refreshed at shutdown")
	flags.StringVar(&opts.randomDevice, "random-device", "", "Seed from this random device instead of the OS CSPRNG, e.g. /dev/random")
	flags.IntVar(&opts.chunkSize, "chunk-size", 0, "Break passwords and keys into chunks of this many characters")
	flags.StringVar(&opts.chunkSep, "chunk-separator", randpass.DefaultChunkSeparator, "Separator between chunks")

	rootCmd.AddCommand(passwordCmd(opts))
	rootCmd.AddCommand(passphraseCmd(opts))
	rootCmd.AddCommand(keyCmd(opts))
	rootCmd.AddCommand(decryptCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// applyConfig merges values from an optional randpassgen.yaml and the
// RANDPASSGEN_* environment into any flag the user did not set on the
// command line.
func applyConfig(cmd *cobra.Command) error {
	v := viper.New()
	v.SetConfigName(cmdName)
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.WithMessage(err, "reading configuration")
		}
	}

	var applyErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		v.BindEnv(f.Name)
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := f.Value.Set(v.GetString(f.Name)); err != nil && applyErr == nil {
			applyErr = errors.WithMessagef(err, "applying configured value for %s", f.Name)
		}
	})
	return applyErr
}

// initLogging configures the global logging system from the logging
// flags. The verbose flag forces debug level everywhere.
func (o *options) initLogging() error {
	spec := o.loggingSpec
	if o.verbose {
		spec = "debug"
	}

	var w io.Writer = os.Stderr
	if o.logFile != "" {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.Wrapf(err, "opening log file %s", o.logFile)
		}
		w = f
	}

	flogging.Init(flogging.Config{
		Format:  "logfmt",
		LogSpec: spec,
		Writer:  w,
	})
	return nil
}

// newManager builds and validates the Manager every generation command
// runs against. The order is fixed: known-answer tests, initialization,
// self-test. Any failure refuses generation.
func (o *options) newManager() (*randpass.Manager, error) {
	m, err := randpass.NewManager(cmdName)
	if err != nil {
		return nil, err
	}
	var primary drbg.EntropySource = drbg.NewSystemEntropySource()
	if o.randomDevice != "" {
		primary, err = drbg.NewDevRandomEntropySource(o.randomDevice)
		if err != nil {
			return nil, errors.WithMessage(err, "creating device entropy source")
		}
	}
	if err := m.SetPrimarySource(primary); err != nil {
		return nil, err
	}

	if o.entropyFile != "" {
		src, err := drbg.NewFileEntropySource(o.entropyFile, 32, 64)
		if err != nil {
			return nil, errors.WithMessage(err, "creating startup entropy source")
		}
		m.SetStartupSource(src)
	}

	if err := m.PerformKAT(); err != nil {
		m.Shutdown()
		return nil, errors.WithMessage(err, "known-answer tests failed, refusing to generate")
	}
	if err := m.Initialize(); err != nil {
		m.Shutdown()
		return nil, errors.WithMessage(err, "initialization failed, refusing to generate")
	}
	if err := m.SelfTest(); err != nil {
		m.Shutdown()
		return nil, errors.WithMessage(err, "self-test failed, refusing to generate")
	}
	return m, nil
}

// withGenerator runs fn against a freshly validated Generator, taking
// care of the output sink and of shutting the Manager down afterwards.
func (o *options) withGenerator(fn func(g *randpass.Generator) error) error {
	var out io.Writer = os.Stdout
	if o.outputFile != "" {
		f, err := os.OpenFile(o.outputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return errors.Wrapf(err, "opening output file %s", o.outputFile)
		}
		defer f.Close()
		out = f
	}

	m, err := o.newManager()
	if err != nil {
		return err
	}
	defer m.Shutdown()

	g, err := randpass.NewGenerator(m, out)
	if err != nil {
		return err
	}
	g.SetChunkFormatting(o.chunkSize, o.chunkSep)
	return fn(g)
}
