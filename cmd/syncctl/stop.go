package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Signal the running synchronization worker to exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl, err := newController(cmd)
		if err != nil {
			return err
		}
		defer ctl.Dispose()

		if err := ctl.Stop(); err != nil {
			return fmt.Errorf("stop: %w", err)
		}
		fmt.Println("Stop signal sent")
		return nil
	},
}
