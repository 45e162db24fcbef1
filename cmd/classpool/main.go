package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("classpool")

func main() {
	var (
		configPath string
		verbosity  int
		cfg        = defaultConfig()
	)

	rootCmd := &cobra.Command{
		Use:          "classpool",
		Short:        "Inspect and verify class file constant pools",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			*cfg = *loaded
			if cmd.Flags().Changed("verbose") {
				cfg.Verbosity = verbosity
			}
			commonlog.Configure(cfg.Verbosity, nil)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+defaultConfigFile+" if present)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newDumpCmd(cfg))
	rootCmd.AddCommand(newVerifyCmd(cfg))
	rootCmd.AddCommand(newTagsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
