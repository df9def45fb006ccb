package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Photo is a stored image attached to an item or inventory. Nodes refer to
// photos by ID in their ordered photo list.
type Photo struct {
	ID        string
	NodeID    string
	Data      []byte
	Thumbnail []byte
	MIME      string
	Width     int
	Height    int
}

// InsertPhoto stores image data.
func InsertPhoto(ctx context.Context, q Querier, p *Photo) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO photos (id, node_id, data, thumbnail, mime, width, height) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.NodeID, p.Data, p.Thumbnail, p.MIME, p.Width, p.Height,
	)
	if err != nil {
		return fmt.Errorf("storing photo: %w", err)
	}
	return nil
}

// GetPhoto returns a photo by ID, or nil if it does not exist.
func GetPhoto(ctx context.Context, q Querier, id string) (*Photo, error) {
	p := &Photo{}
	err := q.QueryRowContext(ctx,
		`SELECT id, node_id, data, thumbnail, mime, width, height FROM photos WHERE id = ?`, id,
	).Scan(&p.ID, &p.NodeID, &p.Data, &p.Thumbnail, &p.MIME, &p.Width, &p.Height)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting photo: %w", err)
	}
	return p, nil
}

// DeletePhoto removes a single photo.
func DeletePhoto(ctx context.Context, q Querier, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting photo: %w", err)
	}
	return nil
}

// DeletePhotosOf removes every photo attached to the listed nodes.
func DeletePhotosOf(ctx context.Context, q Querier, nodeIDs []string) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx,
		`DELETE FROM photos WHERE node_id IN (`+placeholders(len(nodeIDs))+`)`, stringArgs(nodeIDs)...)
	if err != nil {
		return fmt.Errorf("deleting photos: %w", err)
	}
	return nil
}
