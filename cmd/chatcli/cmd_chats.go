package main

import (
	"os"

	"github.com/spf13/cobra"
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List conversations with unread badges",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p := newPrinter(os.Stdout)

		session, err := newSession(ctx, newClient(), p)
		if err != nil {
			return err
		}
		defer session.Close()

		p.printChats(session)
		return nil
	},
}
