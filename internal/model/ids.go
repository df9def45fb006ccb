package model

import "github.com/google/uuid"

// NodeID identifies an item or an inventory.
type NodeID = string

// GameID identifies a game.
type GameID = string

// UserID identifies a user.
type UserID = string

// NewID returns a fresh random identifier. Identifiers are never reused.
func NewID() string {
	return uuid.New().String()
}

// ValidID reports whether s is a well-formed identifier.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
