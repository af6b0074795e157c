// Command obfustr rewrites marker calls like obfustr.T("secret") into
// encrypted literal payloads so the plaintext does not appear in the
// compiled binary. It is invoked the way gofmt is: results go to stdout
// unless -w rewrites the source files in place.
//
// Typical use is a go:generate directive in the package holding secrets:
//
//	//go:generate obfustr -w .
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	write       bool
	list        bool
	seed        string
	runtimePath string
	configPath  string
	logLevel    string
}

func main() {
	os.Exit(main1())
}

func main1() int {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "obfustr [flags] path ...",
		Short: "Obfuscate string literals at build time",
		Long: `obfustr encrypts string, byte string and C string literals at build time.

It scans the given files and directories for calls to the marker functions
T, B and C of the runtime package and replaces each one with a call that
decodes an inlined (ciphertext, key) pair. Each call site gets a fresh
random key, so identical literals never share ciphertext.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write results back to the source files instead of stdout")
	cmd.Flags().BoolVarP(&opts.list, "list", "l", false, "list files containing marker calls and make no changes")
	cmd.Flags().StringVar(&opts.seed, "seed", "", "hex seed for deterministic keys (reproducible builds)")
	cmd.Flags().StringVar(&opts.runtimePath, "runtime", "", "import path of the runtime decode package")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to obfustr.toml (default: found next to the targets)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log verbosity: trace, debug, info, warn or error")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "obfustr: %v\n", err)
		return 1
	}
	return 0
}
