package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
)

func printResult(v interface{}) {
	if output == "json" {
		json.NewEncoder(os.Stdout).Encode(v)
		return
	}
	printTable(v)
}

func printTable(v interface{}) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	switch data := v.(type) {
	case []WorkspaceRow:
		if len(data) == 0 {
			fmt.Println("No workspaces found.")
			return
		}
		fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPROVIDER\tEXPIRES\tCREATED")
		for _, ws := range data {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				ws.ID, ws.Name, ws.Status, ws.Provider, orDash(ws.ExpiresAt), ws.CreatedAt)
		}
	case WorkspaceRow:
		fmt.Fprintf(w, "ID:\t%s\n", data.ID)
		fmt.Fprintf(w, "Name:\t%s\n", data.Name)
		fmt.Fprintf(w, "Owner:\t%s\n", data.Owner)
		fmt.Fprintf(w, "Status:\t%s\n", data.Status)
		fmt.Fprintf(w, "Provider:\t%s\n", data.Provider)
		if data.ProviderID != "" {
			fmt.Fprintf(w, "Provider ID:\t%s\n", data.ProviderID)
		}
		if len(data.ConnectionInfo) > 0 {
			fmt.Fprintf(w, "Connection:\t%s\n", string(data.ConnectionInfo))
		}
		if data.ErrorMessage != "" {
			fmt.Fprintf(w, "Error:\t%s\n", data.ErrorMessage)
		}
		if data.ExpiresAt != "" {
			fmt.Fprintf(w, "Expires:\t%s\n", data.ExpiresAt)
		}
		fmt.Fprintf(w, "Created:\t%s\n", data.CreatedAt)
	case []SnapshotRow:
		if len(data) == 0 {
			fmt.Println("No snapshots found.")
			return
		}
		fmt.Fprintln(w, "SNAPSHOT ID\tNAME\tDESCRIPTION\tCREATED")
		for _, s := range data {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, truncate(s.Description, 40), s.CreatedAt)
		}
	case []OperationRow:
		if len(data) == 0 {
			fmt.Println("No operations found.")
			return
		}
		fmt.Fprintln(w, "OPERATION ID\tWORKSPACE\tTYPE\tSTATUS\tCREATED")
		for _, op := range data {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", op.ID[:8], op.WorkspaceID[:8], op.Type, op.Status, op.CreatedAt)
		}
	case OperationRow:
		fmt.Fprintf(w, "Operation ID:\t%s\n", data.ID)
		fmt.Fprintf(w, "Workspace:\t%s\n", data.WorkspaceID)
		fmt.Fprintf(w, "Type:\t%s\n", data.Type)
		fmt.Fprintf(w, "Status:\t%s\n", data.Status)
		fmt.Fprintf(w, "Created:\t%s\n", data.CreatedAt)
		if data.StartedAt != "" {
			fmt.Fprintf(w, "Started:\t%s\n", data.StartedAt)
		}
		if data.CompletedAt != "" {
			fmt.Fprintf(w, "Completed:\t%s\n", data.CompletedAt)
		}
		if data.Error != "" {
			fmt.Fprintf(w, "Error:\t%s\n", data.Error)
		}
	default:
		json.NewEncoder(os.Stdout).Encode(v)
	}
	w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
