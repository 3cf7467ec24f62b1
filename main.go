package main

import (
	"github.com/raportyapp/raporty/cmd"
)

func main() {
	cmd.Execute()
}
