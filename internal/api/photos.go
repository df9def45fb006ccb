package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/erazemk/inventorykeeper/internal/imaging"
	"github.com/erazemk/inventorykeeper/internal/model"
	"github.com/erazemk/inventorykeeper/internal/store"
)

// PhotosHandler handles photos attached to items and inventories.
type PhotosHandler struct {
	*deps
}

type photoResponse struct {
	ID     string `json:"id"`
	NodeID string `json:"node_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Upload handles POST /api/nodes/{id}/photos. The photo is appended to the
// node's photo list.
func (h *PhotosHandler) Upload(w http.ResponseWriter, r *http.Request) {
	nodeID, ok := h.node(w, r, "upload photo")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<10)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	img, err := imaging.Process(file)
	if errors.Is(err, imaging.ErrUnsupported) {
		jsonError(w, http.StatusBadRequest, "image must be JPEG or PNG")
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &store.Photo{
		ID:        model.NewID(),
		NodeID:    nodeID,
		Data:      img.Data,
		Thumbnail: img.Thumbnail,
		MIME:      img.MIME,
		Width:     img.Width,
		Height:    img.Height,
	}
	err = store.InTx(r.Context(), h.DB, func(tx *sql.Tx) error {
		photos, err := nodePhotos(r.Context(), tx, nodeID)
		if err != nil {
			return err
		}
		if err := store.InsertPhoto(r.Context(), tx, p); err != nil {
			return err
		}
		return store.SetPhotos(r.Context(), tx, nodeID, append(photos, p.ID))
	})
	if err != nil {
		writeError(w, err, "save photo")
		return
	}

	slog.Info("photo uploaded", "user", GetClaims(r.Context()).Username, "node", nodeID, "photo", p.ID)
	jsonResponse(w, http.StatusCreated, photoResponse{ID: p.ID, NodeID: nodeID, Width: p.Width, Height: p.Height})
}

// Get handles GET /api/photos/{id}. With ?thumb=true the thumbnail is
// served instead.
func (h *PhotosHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.photo(w, r)
	if !ok {
		return
	}

	data := p.Data
	mime := p.MIME
	if r.URL.Query().Get("thumb") == "true" {
		data = p.Thumbnail
		mime = "image/jpeg"
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(data)
}

// Delete handles DELETE /api/photos/{id}.
func (h *PhotosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.photo(w, r)
	if !ok {
		return
	}

	err := store.InTx(r.Context(), h.DB, func(tx *sql.Tx) error {
		photos, err := nodePhotos(r.Context(), tx, p.NodeID)
		if err != nil {
			return err
		}
		photos = slices.DeleteFunc(photos, func(id string) bool { return id == p.ID })
		if err := store.SetPhotos(r.Context(), tx, p.NodeID, photos); err != nil {
			return err
		}
		return store.DeletePhoto(r.Context(), tx, p.ID)
	})
	if err != nil {
		writeError(w, err, "delete photo")
		return
	}

	slog.Info("photo deleted", "user", GetClaims(r.Context()).Username, "node", p.NodeID, "photo", p.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo deleted"})
}

// photo loads the photo named by the id path value if the caller reaches
// the node it belongs to.
func (h *PhotosHandler) photo(w http.ResponseWriter, r *http.Request) (*store.Photo, bool) {
	p, err := store.GetPhoto(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		writeError(w, err, "get photo")
		return nil, false
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "photo not found")
		return nil, false
	}
	if err := h.authorize(r.Context(), GetClaims(r.Context()), p.NodeID); err != nil {
		writeError(w, err, "get photo")
		return nil, false
	}
	return p, true
}

// nodePhotos returns the photo list of the item or inventory id.
func nodePhotos(ctx context.Context, q store.Querier, id string) ([]string, error) {
	item, err := store.GetItem(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item.Common.Photos, nil
	}
	inv, err := store.GetInventory(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("node %s: %w", id, model.ErrNotFound)
	}
	return inv.Common.Photos, nil
}
