// Package user holds the request-scoped customer snapshot supplied by the
// authentication collaborator. Core services receive a *User explicitly; there
// is no ambient session lookup.
package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// Role distinguishes customers from back-office staff.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSubAdmin Role = "subadmin"
	RoleAdmin    Role = "admin"
)

// User is a snapshot of a customer account, including the address fields the
// checkout flow denormalizes into the order's shipping address.
type User struct {
	ID            int64
	Name          string
	Email         string
	Phone         string
	Role          Role
	Province      string
	City          string
	District      string
	Subdistrict   string
	SubdistrictID string
	PostalCode    string
	AddressDetail string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsStaff reports whether the user may access back-office operations.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleSubAdmin
}

// CompleteAddress reports whether the user has everything courier shipping
// needs: a phone number, street detail, city, and province.
func (u *User) CompleteAddress() bool {
	return u.Phone != "" && u.AddressDetail != "" && u.City != "" && u.Province != ""
}

// FullAddress formats the address fields into a single line. Checkout stores
// this snapshot on the order so later profile edits never alter past orders.
func (u *User) FullAddress() string {
	var b strings.Builder
	b.WriteString(u.AddressDetail)
	for _, part := range []string{u.District, u.City, u.Province} {
		if part != "" {
			b.WriteString(", ")
			b.WriteString(part)
		}
	}
	if u.PostalCode != "" {
		b.WriteString(" ")
		b.WriteString(u.PostalCode)
	}
	return b.String()
}

// Repository defines read operations for user accounts.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
}
