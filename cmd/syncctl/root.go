package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bindRootCmd = &cobra.Command{
	Use:   "bind-root LOCAL_FOLDER REPOSITORY REMOTE_ROOT",
	Short: "Register a remote folder as a synced root under a bound server",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		localFolder, repository, remoteRoot := args[0], args[1], args[2]

		ctl, err := newController(cmd)
		if err != nil {
			return err
		}
		defer ctl.Dispose()

		rb, err := ctl.BindRoot(localFolder, repository, remoteRoot)
		if err != nil {
			return fmt.Errorf("bind root: %w", err)
		}

		fmt.Printf("Root bound: %s\n", rb.LocalRoot)
		fmt.Printf("  Repository:  %s\n", rb.RemoteRepo)
		fmt.Printf("  Remote UID:  %s\n", rb.RemoteRoot)
		return nil
	},
}

var unbindRootCmd = &cobra.Command{
	Use:   "unbind-root LOCAL_ROOT",
	Short: "Remove a synced root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		localRoot := args[0]

		ctl, err := newController(cmd)
		if err != nil {
			return err
		}
		defer ctl.Dispose()

		if err := ctl.UnbindRoot(localRoot); err != nil {
			return fmt.Errorf("unbind root: %w", err)
		}
		fmt.Printf("Root unbound: %s\n", localRoot)
		return nil
	},
}
