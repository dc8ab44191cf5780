package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type WorkspaceRow struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Owner          string          `json:"owner"`
	Status         string          `json:"status"`
	Provider       string          `json:"provider"`
	ProviderID     string          `json:"provider_id"`
	ConnectionInfo json.RawMessage `json:"connection_info"`
	ErrorMessage   string          `json:"error_message"`
	CreatedAt      string          `json:"created_at"`
	ExpiresAt      string          `json:"expires_at"`
}

type WorkspaceListResponse struct {
	Workspaces []WorkspaceRow `json:"workspaces"`
}

var (
	createProvider string
	createConfig   string
	createTTL      int64
	listStatus     string
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Workspace management commands",
}

var wsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new workspace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, user)

		req := map[string]interface{}{"name": args[0]}
		if createProvider != "" {
			req["provider"] = createProvider
		}
		if createConfig != "" {
			req["config"] = json.RawMessage(createConfig)
		}
		if createTTL > 0 {
			req["ttl_seconds"] = createTTL
		}

		var ws WorkspaceRow
		if err := client.Post("/v1/workspaces", req, &ws); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Workspace %s created, provisioning.\n", ws.ID)
		fmt.Printf("Check status: wardenctl workspace get %s\n", ws.ID)
	},
}

var wsGetCmd = &cobra.Command{
	Use:   "get <workspace-id>",
	Short: "Get workspace details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, user)

		var ws WorkspaceRow
		if err := client.Get("/v1/workspaces/"+args[0], &ws); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printResult(ws)
	},
}

var wsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your workspaces",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, user)

		path := "/v1/workspaces"
		if listStatus != "" {
			path += "?status=" + listStatus
		}
		var resp WorkspaceListResponse
		if err := client.Get(path, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printResult(resp.Workspaces)
	},
}

var wsDeleteCmd = &cobra.Command{
	Use:   "delete <workspace-id>",
	Short: "Delete a workspace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, user)

		var ws WorkspaceRow
		if err := client.Delete("/v1/workspaces/"+args[0], &ws); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Workspace %s deletion requested.\n", ws.ID)
	},
}

var wsStartCmd = &cobra.Command{
	Use:   "start <workspace-id>",
	Short: "Start a stopped workspace",
	Args:  cobra.ExactArgs(1),
	Run:   lifecycleRun("start"),
}

var wsStopCmd = &cobra.Command{
	Use:   "stop <workspace-id>",
	Short: "Stop a running workspace",
	Args:  cobra.ExactArgs(1),
	Run:   lifecycleRun("stop"),
}

var wsRestartCmd = &cobra.Command{
	Use:   "restart <workspace-id>",
	Short: "Restart a workspace",
	Args:  cobra.ExactArgs(1),
	Run:   lifecycleRun("restart"),
}

func lifecycleRun(action string) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, user)

		var ws WorkspaceRow
		if err := client.Post("/v1/workspaces/"+args[0]+"/"+action, nil, &ws); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Workspace %s %s requested.\n", ws.ID, action)
	}
}

func init() {
	wsCreateCmd.Flags().StringVar(&createProvider, "provider", "", "Provider (docker, podman, vagrant, tart)")
	wsCreateCmd.Flags().StringVar(&createConfig, "config", "", "Provider config as a JSON object")
	wsCreateCmd.Flags().Int64Var(&createTTL, "ttl", 0, "Time to live in seconds (0 = no expiry)")
	wsListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status")

	workspaceCmd.AddCommand(wsCreateCmd, wsGetCmd, wsListCmd, wsDeleteCmd, wsStartCmd, wsStopCmd, wsRestartCmd)
	rootCmd.AddCommand(workspaceCmd)
}
