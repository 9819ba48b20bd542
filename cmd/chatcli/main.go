// Command chatcli is a terminal client for Event Craft chat. It runs the
// messaging core against the persistence API.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"eventcraft/internal/domain/entity"
	"eventcraft/internal/infrastructure/persistence"
	"eventcraft/internal/messaging"
	"eventcraft/pkg/config"
	"eventcraft/pkg/logger"
)

var (
	apiURL  string
	userID  string
	role    string
	token   string
	verbose bool

	cfg *config.ClientConfig
)

var rootCmd = &cobra.Command{
	Use:   "chatcli",
	Short: "Event Craft chat in the terminal",
	Long: `chatcli lists your Event Craft conversations, opens one and lets you
send messages. New messages are picked up by polling.

Settings come from the environment (API_BASE_URL, SESSION_USER_ID,
SESSION_ROLE, MESSAGE_POLL_INTERVAL, UNREAD_POLL_INTERVAL) and can be
overridden with flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logger.Configure("development")
		}

		var err error
		cfg, err = config.LoadClient()
		if err != nil {
			return err
		}
		if apiURL != "" {
			cfg.APIBaseURL = strings.TrimRight(apiURL, "/")
		}
		if userID != "" {
			cfg.SessionUserID = userID
		}
		if role != "" {
			cfg.SessionRole = strings.ToUpper(role)
		}
		if cfg.SessionUserID == "" {
			return fmt.Errorf("no session user: set SESSION_USER_ID or pass --user")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Persistence API base URL (default from API_BASE_URL)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "Session user id (default from SESSION_USER_ID)")
	rootCmd.PersistentFlags().StringVarP(&role, "role", "r", "", "Session role: CUSTOMER, VENDOR or ADMIN")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token when the API has auth enabled")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(chatsCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(contactCmd)
	rootCmd.AddCommand(supportCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *persistence.Client {
	client := persistence.NewClient(cfg.APIBaseURL, cfg.APITimeout)
	client.Token = token
	return client
}

// newSession builds and starts a chat session for the configured user.
func newSession(ctx context.Context, client *persistence.Client, observer messaging.Observer) (*messaging.ChatSession, error) {
	session := messaging.NewChatSession(client, client, messaging.Session{
		UserID: cfg.SessionUserID,
		Role:   entity.Role(cfg.SessionRole),
	}, messaging.Options{
		MessagePollInterval: cfg.MessagePollInterval,
		UnreadPollInterval:  cfg.UnreadPollInterval,
		Observer:            observer,
	})
	if err := session.Start(ctx); err != nil {
		return nil, err
	}
	if _, resolved := session.Actor(); !resolved {
		fmt.Fprintln(os.Stderr, "Vendor profile not found. Please refresh and try again. You can read chats but not send.")
	}
	return session, nil
}
