package main

import "github.com/spf13/cobra"

// version 构建时通过 -ldflags "-X main.version=..." 注入
var version = "dev"

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("arcnet %s\n", version)
		},
	})
}
