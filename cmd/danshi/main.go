package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCommand = &cobra.Command{
	Use:   "danshi",
	Short: "danshi terminal client",
	Long:  "",
}

func main() {
	err := rootCommand.Execute()
	if err != nil {
		os.Exit(1)
	}
}
