package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yaoapp/kun/exception"

	"github.com/raportyapp/raporty/config"
	"github.com/raportyapp/raporty/share"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   share.BUILDNAME,
	Short: "Raporty work report service",
	Long:  `Raporty work report service`,
	Args:  cobra.MinimumNArgs(1),
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(os.Stderr, "Run:", share.BUILDNAME, "COMMAND --help")
	},
}

// Boot loads the configuration before a command runs
func Boot() {
	defer func() {
		err := exception.Catch(recover())
		if err != nil {
			fmt.Println("Fatal:", err.Error())
			os.Exit(1)
		}
	}()

	if envFile == "" {
		config.Conf = config.Load()
	} else {
		config.Conf = config.LoadFrom(envFile)
	}

	if config.Conf.Mode == "production" {
		config.Production()
	} else {
		config.Development()
	}
}

// Execute runs the root command
func Execute() {
	rootCmd.AddCommand(
		versionCmd,
		startCmd,
		exportCmd,
		backupsCmd,
	)
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "e", "", "Environment file")
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
