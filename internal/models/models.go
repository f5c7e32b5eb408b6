// Package models defines the API payload types shared by the services layer.
// Monetary amounts are minor units (kobo/cents) to avoid float drift.
package models

import "time"

// User is the authenticated account holder.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Group is a rotating-savings circle.
type Group struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	ContributionMinor int64     `json:"contributionAmount"`
	Currency          string    `json:"currency"`
	Frequency         string    `json:"frequency"` // weekly, biweekly, monthly
	MemberCount       int       `json:"memberCount"`
	MaxMembers        int       `json:"maxMembers"`
	CurrentRound      int       `json:"currentRound"`
	Status            string    `json:"status"` // open, active, completed
	NextPayoutAt      time.Time `json:"nextPayoutAt,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// GroupMember is one participant in a group.
type GroupMember struct {
	UserID         string    `json:"userId"`
	Name           string    `json:"name"`
	Position       int       `json:"position"` // payout order
	JoinedAt       time.Time `json:"joinedAt"`
	HasReceivedPot bool      `json:"hasReceivedPot"`
}

// Payment is one contribution or payout.
type Payment struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId,omitempty"`
	AmountMinor int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Direction   string    `json:"direction"` // contribution, payout
	Status      string    `json:"status"`    // pending, completed, failed
	Reference   string    `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BankAccount is a linked settlement account.
type BankAccount struct {
	ID            string `json:"id"`
	BankName      string `json:"bankName"`
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	IsDefault     bool   `json:"isDefault"`
}

// Notification is one inbox entry.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is the editable subset of the user record.
type Profile struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}
