package model

import "time"

// Game is a shared play session with its own forest of root inventories.
type Game struct {
	ID        GameID    `json:"id"`
	Title     string    `json:"title"`
	Details   string    `json:"details,omitempty"`
	IsPublic  bool      `json:"is_public"`
	CreatedBy UserID    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`

	// GlobalRootID is the location root shared with every participant.
	// Empty once the last participant has left.
	GlobalRootID NodeID `json:"global_root_id,omitempty"`

	// Joined fields (not always populated).
	ParticipantIDs []UserID      `json:"participant_ids,omitempty"`
	PrivateRoots   []PrivateRoot `json:"private_roots,omitempty"`
	SharedRoots    []ShareEntry  `json:"shared_roots,omitempty"`
}

// PrivateRoot is a root inventory visible only to its owning participant.
type PrivateRoot struct {
	InventoryID NodeID `json:"inventory_id"`
	UserID      UserID `json:"user_id"`
	// Main marks the participant's main character.
	Main bool `json:"main"`
}

// ShareEntry grants a participant access to a shared root inventory.
type ShareEntry struct {
	InventoryID NodeID `json:"inventory_id"`
	UserID      UserID `json:"user_id"`
}

// HasParticipant reports whether userID takes part in the game.
func (g *Game) HasParticipant(userID UserID) bool {
	for _, id := range g.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Default names for the canonical roots of a game.
const (
	GlobalRootName        = "World"
	MainCharacterRootName = "Main character"
)
