package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/platedesk/internal/core"
)

func newCheckPlateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-plate VALUE...",
		Short: "Check Plate IDs against the 7 digits + 3 letters format",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invalid := 0
			for _, v := range args {
				if core.ValidatePlateID(v) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tvalid\n", v)
					continue
				}
				invalid++
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tinvalid\n", v)
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d values invalid. %s", invalid, len(args), core.PlateIDHint)
			}
			return nil
		},
	}
}
