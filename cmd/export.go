package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/raportyapp/raporty/config"
	"github.com/raportyapp/raporty/store"
)

var exportUser int64
var exportList bool

// exportCmd writes a month export straight to disk, without the
// service running. Useful for recovering an export when the delivery
// channels are down.
var exportCmd = &cobra.Command{
	Use:   "export [YYYY-MM]",
	Short: "Export a month to an xlsx file",
	Long:  `Export a month to an xlsx file`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		Boot()

		s, err := store.New(config.Conf.DataRoot, config.Conf.BackupKeep)
		if err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("Fatal: %s", err.Error()))
			os.Exit(1)
		}

		if exportList {
			for _, month := range s.Months() {
				fmt.Println(month)
			}
			return
		}

		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, color.RedString("Fatal: month argument is required, or use --list"))
			os.Exit(1)
		}
		month := args[0]

		content, err := s.ExportMonth(month, exportUser)
		if err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("Fatal: %s", err.Error()))
			os.Exit(1)
		}

		filename := store.ExportFilename(month, exportUser)
		if err := os.WriteFile(filename, content, 0644); err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("Fatal: %s", err.Error()))
			os.Exit(1)
		}
		fmt.Println(color.GreenString("Exported %s (%d bytes)", filename, len(content)))
	},
}

func init() {
	exportCmd.Flags().Int64VarP(&exportUser, "user", "u", 0, "Export a single user's rows")
	exportCmd.Flags().BoolVarP(&exportList, "list", "l", false, "List months present in the workbook")
}
