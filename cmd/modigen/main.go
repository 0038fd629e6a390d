package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "modigen",
		Short:         "Generate module builders from JSON catalogs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCmd())
	return root
}

func newGenerateCmd() *cobra.Command {
	var specPath, outPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render a module builder from a catalog file",
		RunE: func(*cobra.Command, []string) error {
			return generate(specPath, outPath)
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "", "path to the module catalog (json)")
	cmd.Flags().StringVar(&outPath, "out", "", "path of the generated .gen.go file")
	_ = cmd.MarkFlagRequired("spec")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.NewWithOptions(os.Stderr, log.Options{Prefix: "modigen"}).Fatal(err)
	}
}
