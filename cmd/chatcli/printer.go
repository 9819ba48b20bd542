package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"eventcraft/internal/domain/entity"
	"eventcraft/internal/messaging"
)

// printer renders chat lists and message updates as plain text.
type printer struct {
	out      io.Writer
	session  *messaging.ChatSession
	loc      *time.Location
	mu       sync.Mutex
	lastSeen map[string]int
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out:      out,
		loc:      time.Local,
		lastSeen: make(map[string]int),
	}
}

func (p *printer) ChatsChanged(chats []*entity.Chat, unread map[string]int) {}

// MessagesChanged prints only the messages not printed before for that chat.
func (p *printer) MessagesChanged(chatID string, messages []*entity.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	printed := p.lastSeen[chatID]
	if printed > len(messages) {
		printed = 0
	}
	if printed == len(messages) {
		return
	}

	fresh := messages[printed:]
	for _, group := range messaging.GroupByDate(fresh, p.loc) {
		fmt.Fprintf(p.out, "-- %s --\n", group.Day)
		for _, m := range group.Messages {
			p.printMessage(m)
		}
	}
	p.lastSeen[chatID] = len(messages)
}

func (p *printer) printMessage(m *entity.Message) {
	who := "them"
	if p.session != nil && p.session.IsMine(m) {
		who = "me"
	}
	status := ""
	if m.Status == entity.StatusSeen {
		status = " ✓✓"
	}
	fmt.Fprintf(p.out, "[%s] %-4s %s%s\n", m.CreatedAt.In(p.loc).Format("15:04"), who, m.Content, status)
}

func (p *printer) printChats(session *messaging.ChatSession) {
	chats := session.Chats()
	if len(chats) == 0 {
		fmt.Fprintln(p.out, "No conversations yet.")
		return
	}
	for _, chat := range chats {
		info := session.Display(chat)
		pin := " "
		if chat.Pinned() {
			pin = "*"
		}
		badge := messaging.Badge(session.Unread(chat.ID))
		if badge != "" {
			badge = " (" + badge + ")"
		}
		fmt.Fprintf(p.out, "%s [%s] %s%s  %s\n    %s\n", pin, info.Initial, info.Name, badge, chat.ID, info.Subtext)
	}
	if total := session.TotalUnread(); total > 0 {
		fmt.Fprintf(p.out, "%s unread\n", messaging.Badge(total))
	}
}
