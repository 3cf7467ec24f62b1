package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/raportyapp/raporty/config"
	"github.com/raportyapp/raporty/store"
)

// backupsCmd lists the rotating workbook backups, oldest first
var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List workbook backups",
	Long:  `List workbook backups`,
	Run: func(cmd *cobra.Command, args []string) {
		Boot()

		s, err := store.New(config.Conf.DataRoot, config.Conf.BackupKeep)
		if err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("Fatal: %s", err.Error()))
			os.Exit(1)
		}

		names := s.Backups()
		if len(names) == 0 {
			fmt.Println("No backups yet")
			return
		}
		for _, name := range names {
			fmt.Println(name)
		}
	},
}
