package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"eventcraft/internal/domain/entity"
	"eventcraft/internal/infrastructure/persistence"
	"eventcraft/internal/messaging"
	"eventcraft/pkg/errors"
)

var openCmd = &cobra.Command{
	Use:   "open <chat-id>",
	Short: "Open a conversation and chat interactively",
	Long: `Open a conversation, print its messages and keep polling for new ones.
Type a line and press enter to send it. Type /quit to leave.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatInteractively(cmd.Context(), func(ctx context.Context, session *messaging.ChatSession) (*entity.Chat, error) {
			if err := session.Select(ctx, args[0]); err != nil {
				return nil, err
			}
			return session.Selected(), nil
		})
	},
}

var contactCmd = &cobra.Command{
	Use:   "contact <vendor-id>",
	Short: "Start or resume a conversation with a vendor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatInteractively(cmd.Context(), func(ctx context.Context, session *messaging.ChatSession) (*entity.Chat, error) {
			return session.ContactVendor(ctx, args[0])
		})
	},
}

var supportCmd = &cobra.Command{
	Use:   "support",
	Short: "Open the Event Craft Support conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		return chatInteractivelyWith(cmd.Context(), client, func(ctx context.Context, session *messaging.ChatSession) (*entity.Chat, error) {
			actor, resolved := session.Actor()
			if !resolved {
				return nil, errors.IdentityUnresolved(cfg.SessionUserID, nil)
			}
			chat, err := client.EnsureSupportChat(ctx, actor)
			if err != nil {
				return nil, err
			}
			if err := session.Select(ctx, chat.ID); err != nil {
				return nil, err
			}
			return session.Selected(), nil
		})
	},
}

type opener func(ctx context.Context, session *messaging.ChatSession) (*entity.Chat, error)

func chatInteractively(ctx context.Context, open opener) error {
	return chatInteractivelyWith(ctx, newClient(), open)
}

func chatInteractivelyWith(ctx context.Context, client *persistence.Client, open opener) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	p := newPrinter(os.Stdout)
	session, err := newSession(ctx, client, p)
	if err != nil {
		return err
	}
	defer session.Close()

	p.mu.Lock()
	p.session = session
	p.mu.Unlock()

	chat, err := open(ctx, session)
	if err != nil {
		return fmt.Errorf("%s", errors.UserMessage(err))
	}
	info := session.Display(chat)
	fmt.Printf("== %s ==  (%s)\n", info.Name, chat.ID)
	p.MessagesChanged(chat.ID, session.Messages())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			switch line {
			case "":
				continue
			case "/quit":
				return nil
			}
			if _, err := session.Send(ctx, line); err != nil {
				fmt.Fprintf(os.Stderr, "! %s\n", errors.UserMessage(err))
			}
		}
	}
}
