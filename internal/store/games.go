package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/inventorykeeper/internal/model"
)

const gameColumns = `id, title, details, is_public, created_by, global_root_id, created_at`

func scanGame(s scanner) (*model.Game, error) {
	g := &model.Game{}
	var details, globalRoot sql.NullString
	if err := s.Scan(&g.ID, &g.Title, &details, &g.IsPublic, &g.CreatedBy, &globalRoot, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.Details = details.String
	g.GlobalRootID = globalRoot.String
	return g, nil
}

// InsertGame stores a new game record.
func InsertGame(ctx context.Context, q Querier, g *model.Game) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO games (id, title, details, is_public, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, nullString(g.Details), g.IsPublic, g.CreatedBy, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating game: %w", err)
	}
	return nil
}

// GetGame returns a game with participants and root registrations, or nil.
func GetGame(ctx context.Context, q Querier, id string) (*model.Game, error) {
	g, err := scanGame(q.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting game: %w", err)
	}

	if g.ParticipantIDs, err = Participants(ctx, q, id); err != nil {
		return nil, err
	}
	if g.PrivateRoots, err = PrivateRoots(ctx, q, id, ""); err != nil {
		return nil, err
	}
	if g.SharedRoots, err = Shares(ctx, q, id, ""); err != nil {
		return nil, err
	}
	return g, nil
}

// ListGames returns games without joined fields. With publicOnly set, only
// public games are returned.
func ListGames(ctx context.Context, q Querier, publicOnly bool) ([]model.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games`
	if publicOnly {
		query += ` WHERE is_public = 1`
	}
	query += ` ORDER BY created_at, title`
	return listGames(ctx, q, query)
}

// GamesOfUser returns the games userID takes part in.
func GamesOfUser(ctx context.Context, q Querier, userID string) ([]model.Game, error) {
	return listGames(ctx, q,
		`SELECT g.id, g.title, g.details, g.is_public, g.created_by, g.global_root_id, g.created_at
		 FROM games g
		 JOIN game_participants p ON p.game_id = g.id
		 WHERE p.user_id = ?
		 ORDER BY g.created_at, g.title`, userID)
}

func listGames(ctx context.Context, q Querier, query string, args ...any) ([]model.Game, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// SetGlobalRoot sets or clears (empty id) the game's global root pointer.
func SetGlobalRoot(ctx context.Context, q Querier, gameID, inventoryID string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE games SET global_root_id = ? WHERE id = ?`, nullString(inventoryID), gameID)
	if err != nil {
		return fmt.Errorf("setting global root: %w", err)
	}
	return nil
}

// ClearGlobalRootOf clears the global root pointer of any game that points at
// inventoryID.
func ClearGlobalRootOf(ctx context.Context, q Querier, inventoryID string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE games SET global_root_id = NULL WHERE global_root_id = ?`, inventoryID)
	if err != nil {
		return fmt.Errorf("clearing global root: %w", err)
	}
	return nil
}

// IsGlobalRoot reports whether inventoryID is the global root of some game.
func IsGlobalRoot(ctx context.Context, q Querier, inventoryID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM games WHERE global_root_id = ?`, inventoryID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking global root: %w", err)
	}
	return n > 0, nil
}

// DeleteGame removes the game record; participation and registrations cascade.
func DeleteGame(ctx context.Context, q Querier, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting game: %w", err)
	}
	return nil
}

// AddParticipant records that userID takes part in gameID. It is idempotent.
func AddParticipant(ctx context.Context, q Querier, gameID, userID string) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO game_participants (game_id, user_id) VALUES (?, ?)`, gameID, userID)
	if err != nil {
		return fmt.Errorf("adding participant: %w", err)
	}
	return nil
}

// RemoveParticipant removes userID from gameID.
func RemoveParticipant(ctx context.Context, q Querier, gameID, userID string) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM game_participants WHERE game_id = ? AND user_id = ?`, gameID, userID)
	if err != nil {
		return fmt.Errorf("removing participant: %w", err)
	}
	return nil
}

// Participants returns the users taking part in a game, in join order.
func Participants(ctx context.Context, q Querier, gameID string) ([]string, error) {
	return queryIDs(ctx, q,
		`SELECT user_id FROM game_participants WHERE game_id = ? ORDER BY joined_at, user_id`, gameID)
}

// UserGameIDs returns the games a user takes part in.
func UserGameIDs(ctx context.Context, q Querier, userID string) ([]string, error) {
	return queryIDs(ctx, q,
		`SELECT game_id FROM game_participants WHERE user_id = ? ORDER BY joined_at, game_id`, userID)
}

// AddPrivateRoot registers a root inventory as private to userID.
func AddPrivateRoot(ctx context.Context, q Querier, gameID string, root model.PrivateRoot) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO game_private_roots (inventory_id, game_id, user_id, is_main) VALUES (?, ?, ?, ?)`,
		root.InventoryID, gameID, root.UserID, root.Main)
	if err != nil {
		return fmt.Errorf("registering private root: %w", err)
	}
	return nil
}

// PrivateRoots returns the private roots of a game, optionally only those of userID.
func PrivateRoots(ctx context.Context, q Querier, gameID, userID string) ([]model.PrivateRoot, error) {
	query := `SELECT r.inventory_id, r.user_id, r.is_main
	          FROM game_private_roots r
	          JOIN inventories i ON i.id = r.inventory_id
	          WHERE r.game_id = ?`
	args := []any{gameID}
	if userID != "" {
		query += ` AND r.user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY i.created_at, r.inventory_id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing private roots: %w", err)
	}
	defer rows.Close()

	var roots []model.PrivateRoot
	for rows.Next() {
		var r model.PrivateRoot
		if err := rows.Scan(&r.InventoryID, &r.UserID, &r.Main); err != nil {
			return nil, fmt.Errorf("scanning private root: %w", err)
		}
		roots = append(roots, r)
	}
	return roots, rows.Err()
}

// RemovePrivateRoot drops the private registration of an inventory.
func RemovePrivateRoot(ctx context.Context, q Querier, inventoryID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM game_private_roots WHERE inventory_id = ?`, inventoryID)
	if err != nil {
		return fmt.Errorf("removing private root: %w", err)
	}
	return nil
}

// AddShare grants userID access to a shared root. It is idempotent.
func AddShare(ctx context.Context, q Querier, gameID string, share model.ShareEntry) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO game_shared_roots (inventory_id, user_id, game_id) VALUES (?, ?, ?)`,
		share.InventoryID, share.UserID, gameID)
	if err != nil {
		return fmt.Errorf("sharing root: %w", err)
	}
	return nil
}

// Shares returns the share entries of a game, optionally only those of userID.
func Shares(ctx context.Context, q Querier, gameID, userID string) ([]model.ShareEntry, error) {
	query := `SELECT inventory_id, user_id FROM game_shared_roots WHERE game_id = ?`
	args := []any{gameID}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY rowid`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing shares: %w", err)
	}
	defer rows.Close()

	var shares []model.ShareEntry
	for rows.Next() {
		var s model.ShareEntry
		if err := rows.Scan(&s.InventoryID, &s.UserID); err != nil {
			return nil, fmt.Errorf("scanning share: %w", err)
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

// RemoveShare revokes a single share entry.
func RemoveShare(ctx context.Context, q Querier, share model.ShareEntry) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM game_shared_roots WHERE inventory_id = ? AND user_id = ?`,
		share.InventoryID, share.UserID)
	if err != nil {
		return fmt.Errorf("removing share: %w", err)
	}
	return nil
}

// RemoveSharesOfInventory drops every share entry of an inventory.
func RemoveSharesOfInventory(ctx context.Context, q Querier, inventoryID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM game_shared_roots WHERE inventory_id = ?`, inventoryID)
	if err != nil {
		return fmt.Errorf("removing shares: %w", err)
	}
	return nil
}

// ShareCount returns how many users an inventory is shared with.
func ShareCount(ctx context.Context, q Querier, inventoryID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_shared_roots WHERE inventory_id = ?`, inventoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting shares: %w", err)
	}
	return n, nil
}

// RootGame returns the game a root inventory is registered in, or "" if none.
func RootGame(ctx context.Context, q Querier, inventoryID string) (string, error) {
	var gameID string
	err := q.QueryRowContext(ctx,
		`SELECT game_id FROM game_private_roots WHERE inventory_id = ?
		 UNION
		 SELECT game_id FROM game_shared_roots WHERE inventory_id = ?
		 UNION
		 SELECT id FROM games WHERE global_root_id = ?
		 LIMIT 1`, inventoryID, inventoryID, inventoryID).Scan(&gameID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("finding game of root: %w", err)
	}
	return gameID, nil
}

func queryIDs(ctx context.Context, q Querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
