// Command hivexml converts a Windows Registry hive file to XML on stdout.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hivexml/hive"
	"github.com/joshuapare/hivexml/xmlout"
)

var (
	debug      bool
	skipBad    bool
	outputPath string
)

var rootCmd = &cobra.Command{
	Use:   "hivexml [flags] <hive>",
	Short: "Convert a Windows Registry hive to XML",
	Long: `hivexml reads a binary Windows Registry hive file and writes an XML
rendition of its keys and values to stdout. Every key and value element
carries byte_runs provenance locating its on-disk record, and non-printable
names and data are base64-escaped.

Example:
  hivexml system.hive > system.xml
  hivexml -k corrupt.hive -o partial.xml`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.Flags().BoolVarP(&skipBad, "skip-bad", "k", false, "Skip unreadable keys and values instead of aborting")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write XML to file instead of stdout")
}

func run(hivePath string) error {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	h, err := hive.Open(hivePath)
	if err != nil {
		return err
	}
	defer h.Close()

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		out = f
	}

	if err := xmlout.Convert(h, out, xmlout.Options{SkipBad: skipBad, Logger: log}); err != nil {
		if out != os.Stdout {
			out.Close()
		}
		return err
	}
	if out != os.Stdout {
		// A buffered write can surface only at close; that must fail the run.
		if err := out.Close(); err != nil {
			return err
		}
	}
	return h.Close()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
