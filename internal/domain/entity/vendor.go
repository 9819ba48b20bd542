package entity

import "time"

// Vendor is the business entity a VENDOR-role user acts as in chats.
type Vendor struct {
	ID          string    `json:"id" firestore:"id"`
	UserID      string    `json:"userId" firestore:"userId"`
	CompanyName string    `json:"companyName" firestore:"companyName"`
	Category    string    `json:"category,omitempty" firestore:"category,omitempty"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}

func (v *Vendor) Ref() *VendorRef {
	return &VendorRef{ID: v.ID, UserID: v.UserID, CompanyName: v.CompanyName}
}
