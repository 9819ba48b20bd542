package messaging

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"eventcraft/internal/domain/entity"
)

const (
	supportSubtext = "Official support"
	emptySubtext   = "No messages yet"
	unknownVendor  = "Vendor"
	unknownUser    = "Customer"
	previewRunes   = 40
)

// DisplayInfo is how a chat is labelled in the chat list and header.
type DisplayInfo struct {
	Name    string
	Subtext string
	Initial string
}

// IsMine reports whether the acting identity wrote the message.
//
// USER messages belong to the chat's customer. VENDOR messages belong to the
// acting vendor only when it occupies one of the chat's vendor slots, which in
// a vendor-to-vendor chat may be either slot.
func IsMine(message *entity.Message, chat *entity.Chat, actor entity.Actor) bool {
	if message == nil || chat == nil || actor.ID == "" {
		return false
	}

	switch message.Sender.Type {
	case entity.SenderUser:
		return actor.Kind == entity.ActorUser && chat.HasUser(actor.ID)
	case entity.SenderVendor:
		return message.Sender.Is(actor) && chat.HasVendor(actor.ID)
	}
	return false
}

// Display returns the counterparty label for a chat as seen by actor.
func Display(chat *entity.Chat, actor entity.Actor) DisplayInfo {
	if chat == nil {
		return withInitial(DisplayInfo{Name: unknownVendor, Subtext: emptySubtext})
	}
	if chat.IsSystemChat && chat.HasSupportVendor() {
		return withInitial(DisplayInfo{Name: entity.SupportCompanyName, Subtext: supportSubtext})
	}

	info := DisplayInfo{Subtext: preview(chat.LastMessage)}
	switch {
	case chat.IsVendorChat():
		// without a resolved vendor id there is no safe way to tell the slots apart
		info.Name = unknownVendor
		if actor.Kind == entity.ActorVendor {
			if other := chat.CounterpartVendor(actor.ID); other != nil && other.CompanyName != "" {
				info.Name = other.CompanyName
			}
		}
	case actor.Kind == entity.ActorVendor:
		info.Name = userName(chat.User)
	default:
		info.Name = unknownVendor
		if chat.Vendor != nil && chat.Vendor.CompanyName != "" {
			info.Name = chat.Vendor.CompanyName
		}
	}
	return withInitial(info)
}

func userName(u *entity.UserRef) string {
	switch {
	case u == nil:
		return unknownUser
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	}
	return unknownUser
}

func preview(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return emptySubtext
	}
	if utf8.RuneCountInString(content) <= previewRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewRunes-1]) + "…"
}

func withInitial(info DisplayInfo) DisplayInfo {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(info.Name))
	if r != utf8.RuneError {
		info.Initial = string(unicode.ToUpper(r))
	}
	return info
}
