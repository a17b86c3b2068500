package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/V4T54L/syslogfc/internal/adapter/render"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List output formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range render.Formats() {
				marker := " "
				if f.Name == render.DefaultFormat {
					marker = "*"
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %-10s %s\n", marker, f.Name, f.Description); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
