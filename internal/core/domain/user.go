package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleUser   = "user"
	RoleDriver = "driver"
)

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Account returns the notification view of the user.
func (u *User) Account() Account {
	return Account{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

// Account is the addressee of a notification.
type Account struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}

const (
	receiverAccountID   = "receiver"
	receiverDefaultName = "Customer"
)

// IsReceiver reports whether the account was synthesized from a shipment's receiver fields.
func (a Account) IsReceiver() bool { return a.ID == receiverAccountID }

// DisplayName returns "First Last" trimmed of empty parts.
func (a Account) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ReceiverAccount synthesizes an addressee from the receiver contact of s.
// The name is split on the first space; a missing name falls back to a
// generic label.
func ReceiverAccount(s *Shipment) Account {
	name := strings.TrimSpace(s.ReceiverName)
	if name == "" {
		return Account{ID: receiverAccountID, FirstName: receiverDefaultName, Email: s.ReceiverEmail}
	}
	first, last, _ := strings.Cut(name, " ")
	return Account{
		ID:        receiverAccountID,
		FirstName: first,
		LastName:  strings.TrimSpace(last),
		Email:     s.ReceiverEmail,
	}
}
