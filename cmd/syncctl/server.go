package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bindServerCmd = &cobra.Command{
	Use:   "bind-server LOCAL_FOLDER SERVER_URL USER",
	Short: "Bind a local folder to a remote server account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		localFolder, serverURL, user := args[0], args[1], args[2]
		password, _ := cmd.Flags().GetString("password")

		ctl, err := newController(cmd)
		if err != nil {
			return err
		}
		defer ctl.Dispose()

		sb, err := ctl.BindServer(localFolder, serverURL, user, password)
		if err != nil {
			return fmt.Errorf("bind server: %w", err)
		}

		fmt.Printf("Server bound: %s\n", sb.LocalFolder)
		fmt.Printf("  Server URL: %s\n", sb.ServerURL)
		fmt.Printf("  User:       %s\n", sb.RemoteUser)
		if sb.RemoteToken != nil {
			fmt.Println("  Auth:       token")
		} else {
			fmt.Println("  Auth:       password")
		}
		return nil
	},
}

var unbindServerCmd = &cobra.Command{
	Use:   "unbind-server LOCAL_FOLDER",
	Short: "Unbind a local folder from its remote server account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		localFolder := args[0]

		ctl, err := newController(cmd)
		if err != nil {
			return err
		}
		defer ctl.Dispose()

		if err := ctl.UnbindServer(localFolder); err != nil {
			return fmt.Errorf("unbind server: %w", err)
		}
		fmt.Printf("Server unbound: %s\n", localFolder)
		return nil
	},
}

func init() {
	bindServerCmd.Flags().String("password", "", "password for the remote account (required unless a token is supplied out of band)")
}
