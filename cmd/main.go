package main

import (
	goflag "flag"
	"fmt"
	"os"

	"aspd/internal/config"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
)

var ConfigFile string

var rootCmd = &cobra.Command{
	Use:   "aspd",
	Short: "aspd, stateful answer set solving over HTTP",
	Long:  "",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ConfigFile, "config", "", "YAML config file")
}

// loadConfig reads the config file and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Log.Apply(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)

	rootCmd.AddCommand(versionCommand)
	rootCmd.AddCommand(serveCommand)
	rootCmd.AddCommand(clientCommand)
	rootCmd.AddCommand(solveCommand)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
