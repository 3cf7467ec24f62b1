package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/raportyapp/raporty/config"
	"github.com/raportyapp/raporty/engine"
	"github.com/raportyapp/raporty/share"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the report service",
	Long:  `Start the report service`,
	Run: func(cmd *cobra.Command, args []string) {
		Boot()

		mode := ""
		if config.Conf.Mode != "production" {
			mode = color.RedString("development mode")
		}
		fmt.Println(color.GreenString("Raporty v%s %s", share.VERSION, mode))

		srv, err := engine.Load(config.Conf)
		if err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("Fatal: %s", err.Error()))
			os.Exit(1)
		}

		fmt.Println(color.WhiteString("---------------------------------"))
		fmt.Println(color.GreenString("Data root:    %s", config.Conf.DataRoot))
		fmt.Println(color.GreenString("Listening:    %s:%d", config.Conf.Host, config.Conf.Port))
		if len(config.Conf.Schedules) > 0 {
			fmt.Println(color.GreenString("Schedules:    %s", strings.Join(config.Conf.Schedules, ", ")))
		}
		if names := srv.Dispatcher.Names(); len(names) > 0 {
			fmt.Println(color.GreenString("Destinations: %s", strings.Join(names, ", ")))
		}
		fmt.Println(color.WhiteString("---------------------------------"))

		done := make(chan os.Signal, 1)
		signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-done
			srv.Stop()
		}()

		if err := srv.Start(); err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("Fatal: %s", err.Error()))
			os.Exit(1)
		}
		fmt.Println(color.GreenString("Service stopped"))
	},
}
