package entity

// ActorKind says which id space an Actor's ID belongs to.
type ActorKind string

const (
	ActorUser   ActorKind = "USER"
	ActorVendor ActorKind = "VENDOR"
)

// Role is the session role string handed over by the session provider.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleVendor   Role = "VENDOR"
	RoleAdmin    Role = "ADMIN"
)

// Actor is the resolved identity performing an action: a user id, or for
// vendor sessions the id of the vendor entity owned by the logged-in user.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   string    `json:"id"`
}

func UserActor(id string) Actor   { return Actor{Kind: ActorUser, ID: id} }
func VendorActor(id string) Actor { return Actor{Kind: ActorVendor, ID: id} }

func (a Actor) IsUser() bool { return a.Kind == ActorUser && a.ID != "" }

// Sender returns the tagged sender identity for messages written by this actor.
func (a Actor) Sender() Sender {
	if a.Kind == ActorVendor {
		return Sender{Type: SenderVendor, ID: a.ID}
	}
	return Sender{Type: SenderUser, ID: a.ID}
}
