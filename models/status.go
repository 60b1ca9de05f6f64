package models

// OrderStatus is the lifecycle state of an Order (pedido)
type OrderStatus string

const (
	OrderStatusSent       OrderStatus = "E"  // submitted by the client, waiting for the library
	OrderStatusProcessing OrderStatus = "P"  // being prepared by a librarian
	OrderStatusAccepted   OrderStatus = "A"  // accepted, client notified with a pickup deadline
	OrderStatusReceived   OrderStatus = "R"  // copy handed to the client
	OrderStatusFinalized  OrderStatus = "F"  // copy returned
	OrderStatusCancelled  OrderStatus = "PC" // cancelled before finalization
)

var validOrderStatuses = map[OrderStatus]bool{
	OrderStatusSent:       true,
	OrderStatusProcessing: true,
	OrderStatusAccepted:   true,
	OrderStatusReceived:   true,
	OrderStatusFinalized:  true,
	OrderStatusCancelled:  true,
}

// IsValid reports whether s is a known order status code
func (s OrderStatus) IsValid() bool {
	return validOrderStatuses[s]
}

// orderTransitions lists the forward moves of the order state machine.
// Finalized and cancelled orders are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusSent:       {OrderStatusProcessing, OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted:   {OrderStatusReceived, OrderStatusCancelled},
	OrderStatusReceived:   {OrderStatusFinalized, OrderStatusCancelled},
	OrderStatusFinalized:  {},
	OrderStatusCancelled:  {},
}

// CanTransitionTo reports whether the transition table allows moving from s to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsOpening reports whether a new order may start in s
func (s OrderStatus) IsOpening() bool {
	return s == OrderStatusSent || s == OrderStatusProcessing
}

// AllowedTransitions returns the statuses reachable from s in one step
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	out := make([]OrderStatus, len(orderTransitions[s]))
	copy(out, orderTransitions[s])
	return out
}

// CopyStatus is the state of a single physical copy (inventario_libro)
type CopyStatus string

const (
	CopyStatusAvailable     CopyStatus = "DI"
	CopyStatusReserved      CopyStatus = "S"
	CopyStatusCheckedOut    CopyStatus = "CP"
	CopyStatusReturnPending CopyStatus = "PD"
)

// IsValid reports whether s is a known copy status code
func (s CopyStatus) IsValid() bool {
	switch s {
	case CopyStatusAvailable, CopyStatusReserved, CopyStatusCheckedOut, CopyStatusReturnPending:
		return true
	}
	return false
}

// LineStatus is the state of an order line (libro_pedido)
type LineStatus string

const (
	LineStatusAwaiting  LineStatus = "ES"
	LineStatusDelivered LineStatus = "EC"
	LineStatusReturned  LineStatus = "DE"
)

// IsValid reports whether s is a known line status code
func (s LineStatus) IsValid() bool {
	switch s {
	case LineStatusAwaiting, LineStatusDelivered, LineStatusReturned:
		return true
	}
	return false
}

// BookStatus flags a book as enabled or soft-deleted
type BookStatus string

const (
	BookStatusEnabled  BookStatus = "H"
	BookStatusDisabled BookStatus = "D"
)

// IsValid reports whether s is a known book status code
func (s BookStatus) IsValid() bool {
	return s == BookStatusEnabled || s == BookStatusDisabled
}

// UserStatus flags an account as active or soft-deleted
type UserStatus string

const (
	UserStatusActive   UserStatus = "A"
	UserStatusDisabled UserStatus = "D"
)

// IsValid reports whether s is a known user status code
func (s UserStatus) IsValid() bool {
	return s == UserStatusActive || s == UserStatusDisabled
}

// Role is the numeric role stored in usr_rol
type Role int

const (
	RoleAdmin     Role = 1
	RoleClient    Role = 2
	RoleLibrarian Role = 3
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleClient || r == RoleLibrarian
}

// IsStaff reports whether r may manage the catalog and the order lifecycle
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleLibrarian
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleClient:
		return "client"
	case RoleLibrarian:
		return "librarian"
	}
	return "unknown"
}
