package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listPendingCmd = &cobra.Command{
	Use:   "list-pending",
	Short: "List pair states that are not yet synchronized",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		localFolder, _ := cmd.Flags().GetString("local-folder")
		ignoreInError, _ := cmd.Flags().GetInt("ignore-in-error")

		ctl, err := newController(cmd)
		if err != nil {
			return err
		}
		defer ctl.Dispose()

		pending, err := ctl.ListPending(limit, localFolder, ignoreInError)
		if err != nil {
			return fmt.Errorf("list pending: %w", err)
		}

		if len(pending) == 0 {
			fmt.Println("No pending pairs")
			return nil
		}

		fmt.Printf("%-40s %-22s %-22s %s\n", "PATH", "LOCAL_STATE", "REMOTE_STATE", "PAIR_STATE")
		for _, p := range pending {
			fmt.Printf("%-40s %-22s %-22s %s\n", p.Path, p.LocalState, p.RemoteState, p.PairState)
		}
		return nil
	},
}

var childrenCmd = &cobra.Command{
	Use:   "children FOLDER_PATH",
	Short: "List the aggregated synchronization state of a folder's direct children",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folderPath := args[0]

		ctl, err := newController(cmd)
		if err != nil {
			return err
		}
		defer ctl.Dispose()

		children, err := ctl.ChildrenStates(folderPath)
		if err != nil {
			return fmt.Errorf("children: %w", err)
		}

		if len(children) == 0 {
			fmt.Println("No children")
			return nil
		}

		for _, c := range children {
			fmt.Printf("%-40s %s\n", c.Name, c.State)
		}
		return nil
	},
}

func init() {
	listPendingCmd.Flags().Int("limit", 100, "maximum number of pairs to return")
	listPendingCmd.Flags().String("local-folder", "", "restrict to pairs under this ServerBinding")
	listPendingCmd.Flags().Int("ignore-in-error", 0, "skip pairs that errored within this many seconds")
}
