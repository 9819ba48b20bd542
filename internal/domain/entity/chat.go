package entity

import "time"

// SupportCompanyName is the company name of the reserved vendor record that
// backs system (support) chats.
const SupportCompanyName = "Event Craft Support"

type UserRef struct {
	ID    string `json:"id" firestore:"id"`
	Name  string `json:"name,omitempty" firestore:"name,omitempty"`
	Email string `json:"email,omitempty" firestore:"email,omitempty"`
}

type VendorRef struct {
	ID          string `json:"id" firestore:"id"`
	UserID      string `json:"userId,omitempty" firestore:"userId,omitempty"`
	CompanyName string `json:"companyName,omitempty" firestore:"companyName,omitempty"`
}

// Chat is either a user chat (User + Vendor) or a vendor-to-vendor chat
// (Vendor + Vendor2). System chats use the support vendor in one vendor slot.
type Chat struct {
	ID            string     `json:"id" firestore:"id"`
	User          *UserRef   `json:"user,omitempty" firestore:"user,omitempty"`
	Vendor        *VendorRef `json:"vendor,omitempty" firestore:"vendor,omitempty"`
	Vendor2       *VendorRef `json:"vendor2,omitempty" firestore:"vendor2,omitempty"`
	LastMessage   string     `json:"lastMessage,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty" firestore:"lastMessageAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" firestore:"createdAt"`
	IsPinned      bool       `json:"isPinned,omitempty" firestore:"isPinned"`
	IsSystemChat  bool       `json:"isSystemChat,omitempty" firestore:"isSystemChat"`
	MessageCount  int64      `json:"messageCount,omitempty" firestore:"messageCount"`
}

func (c *Chat) IsVendorChat() bool {
	return c.User == nil && c.Vendor != nil && c.Vendor2 != nil
}

// Pinned reports whether the chat belongs in the leading group of a chat list.
func (c *Chat) Pinned() bool {
	return c.IsPinned || c.IsSystemChat
}

// ActivityAt is the recency key: the last message time, or creation time for
// chats that never saw a message.
func (c *Chat) ActivityAt() time.Time {
	if c.LastMessageAt != nil && !c.LastMessageAt.IsZero() {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}

// HasVendor reports whether vendorID occupies either vendor slot.
func (c *Chat) HasVendor(vendorID string) bool {
	if vendorID == "" {
		return false
	}
	return (c.Vendor != nil && c.Vendor.ID == vendorID) ||
		(c.Vendor2 != nil && c.Vendor2.ID == vendorID)
}

// HasUser reports whether userID is the customer side of a user chat.
func (c *Chat) HasUser(userID string) bool {
	return userID != "" && c.User != nil && c.User.ID == userID
}

// Involves reports whether the actor is a participant of the chat.
func (c *Chat) Involves(actor Actor) bool {
	switch actor.Kind {
	case ActorUser:
		return c.HasUser(actor.ID)
	case ActorVendor:
		return c.HasVendor(actor.ID)
	}
	return false
}

// CounterpartVendor returns the vendor slot that is not vendorID, or nil when
// vendorID is in neither slot.
func (c *Chat) CounterpartVendor(vendorID string) *VendorRef {
	switch {
	case vendorID == "":
		return nil
	case c.Vendor != nil && c.Vendor.ID == vendorID:
		return c.Vendor2
	case c.Vendor2 != nil && c.Vendor2.ID == vendorID:
		return c.Vendor
	}
	return nil
}

// HasSupportVendor reports whether either vendor slot carries the reserved
// support company name.
func (c *Chat) HasSupportVendor() bool {
	return (c.Vendor != nil && c.Vendor.CompanyName == SupportCompanyName) ||
		(c.Vendor2 != nil && c.Vendor2.CompanyName == SupportCompanyName)
}
