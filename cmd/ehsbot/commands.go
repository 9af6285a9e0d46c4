package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/H9919/ehsbot/internal/config"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk to the intake bot",
	Long: `Talk to the intake bot.

With a message argument, sends a single turn and prints the reply.
Without one, opens an interactive loop (Ctrl-D to exit).

Examples:
  ehsbot chat "report an incident: a forklift clipped the dock door"
  ehsbot chat`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if len(args) > 0 {
			return sendChatTurn(cmd.Context(), client, userID, strings.Join(args, " "))
		}

		fmt.Fprintln(os.Stderr, "Interactive chat. Ctrl-D to exit.")
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Fprint(os.Stderr, "> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := sendChatTurn(cmd.Context(), client, userID, line); err != nil {
				printError("%v", err)
			}
		}
		return scanner.Err()
	},
}

func sendChatTurn(ctx context.Context, client *apiClient, userID, message string) error {
	resp, err := client.post(ctx, "/chat", map[string]string{
		"message": message,
		"user_id": userID,
	})
	if err != nil {
		return err
	}

	var reply struct {
		Message      string   `json:"message"`
		Type         string   `json:"type"`
		QuickReplies []string `json:"quick_replies"`
		RecordID     string   `json:"record_id"`
	}
	if err := decodeJSON(resp, &reply); err != nil {
		return err
	}

	fmt.Println(reply.Message)
	if len(reply.QuickReplies) > 0 {
		fmt.Printf("\n%s %s\n", colorize(colorBold, "Options:"), strings.Join(reply.QuickReplies, " | "))
	}
	if reply.RecordID != "" {
		printSuccess("Saved as %s", reply.RecordID)
	}
	return nil
}

func init() {
	chatCmd.Flags().String("user", "", "session key (defaults to the shared chat session)")
}

// --- reset ---

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the in-progress report session",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/chat/reset", map[string]string{"user_id": userID})
		if err != nil {
			return err
		}

		var reply struct {
			Message string `json:"message"`
		}
		if err := decodeJSON(resp, &reply); err != nil {
			return err
		}

		printSuccess("%s", reply.Message)
		return nil
	},
}

func init() {
	resetCmd.Flags().String("user", "", "session key to reset")
}

// --- incidents ---

var incidentsCmd = &cobra.Command{
	Use:   "incidents",
	Short: "Browse filed incident records",
}

var incidentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent incidents",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/incidents?limit=%d", limit))
		if err != nil {
			return err
		}

		var incidents []struct {
			ID          string `json:"id"`
			Category    string `json:"category"`
			Severe      bool   `json:"severe"`
			CreatedAt   string `json:"created_at"`
			Description string `json:"description"`
		}
		if err := decodeJSON(resp, &incidents); err != nil {
			return err
		}

		if len(incidents) == 0 {
			fmt.Println("No incidents found.")
			return nil
		}

		for _, inc := range incidents {
			desc := inc.Description
			if len(desc) > 60 {
				desc = desc[:60] + "..."
			}
			severe := ""
			if inc.Severe {
				severe = colorize(colorRed, " SEVERE")
			}
			fmt.Printf("%s  %s  %-18s%s  %s\n",
				colorize(colorCyan, inc.ID),
				inc.CreatedAt,
				inc.Category,
				severe,
				desc,
			)
		}
		return nil
	},
}

var incidentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single incident",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, _ := cmd.Flags().GetBool("archive")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/incidents/" + args[0]
		if archive {
			path += "/archive"
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var incident any
		if err := decodeJSON(resp, &incident); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(incident)
	},
}

func init() {
	incidentsListCmd.Flags().Int("limit", 20, "maximum number of incidents to list")
	incidentsShowCmd.Flags().Bool("archive", false, "show the category-native archive payload instead")
	incidentsCmd.AddCommand(incidentsListCmd)
	incidentsCmd.AddCommand(incidentsShowCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
