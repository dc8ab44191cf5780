package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type SnapshotRow struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type SnapshotListResponse struct {
	Snapshots []SnapshotRow `json:"snapshots"`
}

var snapshotDescription string

var snapshotCmd = &cobra.Command{
	Use:     "snapshot",
	Aliases: []string{"snap"},
	Short:   "Snapshot management commands",
}

var snapCreateCmd = &cobra.Command{
	Use:   "create <workspace-id> <name>",
	Short: "Snapshot a workspace",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, user)

		req := map[string]interface{}{"name": args[1]}
		if snapshotDescription != "" {
			req["description"] = snapshotDescription
		}

		var snap SnapshotRow
		if err := client.Post("/v1/workspaces/"+args[0]+"/snapshots", req, &snap); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Snapshot %s created, capture in progress.\n", snap.ID)
	},
}

var snapListCmd = &cobra.Command{
	Use:   "list <workspace-id>",
	Short: "List snapshots of a workspace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, user)

		var resp SnapshotListResponse
		if err := client.Get("/v1/workspaces/"+args[0]+"/snapshots", &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printResult(resp.Snapshots)
	},
}

var snapRestoreCmd = &cobra.Command{
	Use:   "restore <workspace-id> <snapshot-id>",
	Short: "Roll a workspace back to a snapshot",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, user)

		var op OperationRow
		path := "/v1/workspaces/" + args[0] + "/snapshots/" + args[1] + "/restore"
		if err := client.Post(path, nil, &op); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Restore requested.\n")
		fmt.Printf("Check status: wardenctl operation get %s\n", op.ID)
	},
}

func init() {
	snapCreateCmd.Flags().StringVar(&snapshotDescription, "description", "", "Snapshot description")

	snapshotCmd.AddCommand(snapCreateCmd, snapListCmd, snapRestoreCmd)
	rootCmd.AddCommand(snapshotCmd)
}
