// Package api exposes the inventory engine as a JSON API over HTTP.
package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/inventorykeeper/internal/game"
	"github.com/erazemk/inventorykeeper/internal/transfer"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	d := &deps{DB: db, Transfers: transfer.New(db), Games: game.New(db)}
	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{d}
	gamesHandler := &GamesHandler{d}
	inventoriesHandler := &InventoriesHandler{d}
	itemsHandler := &ItemsHandler{d}
	movesHandler := &MovesHandler{d}
	photosHandler := &PhotosHandler{d}

	authMW := AuthMiddleware(jwtSecret, db)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(RequireAdmin(h)) }

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))
	mux.Handle("DELETE /api/users/{id}/games/{game}", admin(usersHandler.Unsubscribe))

	// Games.
	mux.Handle("GET /api/games", authed(gamesHandler.List))
	mux.Handle("POST /api/games", authed(gamesHandler.Create))
	mux.Handle("GET /api/games/{id}", authed(gamesHandler.Get))
	mux.Handle("DELETE /api/games/{id}", authed(gamesHandler.Delete))
	mux.Handle("POST /api/games/{id}/subscribe", authed(gamesHandler.Subscribe))
	mux.Handle("POST /api/games/{id}/unsubscribe", authed(gamesHandler.Unsubscribe))
	mux.Handle("POST /api/games/{id}/share", authed(gamesHandler.Share))
	mux.Handle("GET /api/games/{id}/roots", authed(gamesHandler.Roots))
	mux.Handle("POST /api/games/{id}/roots", authed(gamesHandler.CreateRoot))
	mux.Handle("DELETE /api/games/{id}/roots/{root}", authed(gamesHandler.DeleteRoot))
	mux.Handle("GET /api/games/{id}/dump", authed(gamesHandler.Dump))

	// Inventories.
	mux.Handle("GET /api/inventories/{id}", authed(inventoriesHandler.Get))
	mux.Handle("PUT /api/inventories/{id}", authed(inventoriesHandler.Update))
	mux.Handle("DELETE /api/inventories/{id}", authed(inventoriesHandler.Delete))
	mux.Handle("GET /api/inventories/{id}/children", authed(inventoriesHandler.Children))
	mux.Handle("POST /api/inventories/{id}/inventories", authed(inventoriesHandler.CreateInventory))
	mux.Handle("POST /api/inventories/{id}/items", authed(inventoriesHandler.CreateItem))
	mux.Handle("POST /api/inventories/{id}/move", authed(inventoriesHandler.Move))
	mux.Handle("GET /api/inventories/{id}/totals", authed(inventoriesHandler.Totals))
	mux.Handle("GET /api/inventories/{id}/dump", authed(inventoriesHandler.Dump))

	// Items.
	mux.Handle("GET /api/items/{id}", authed(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", authed(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", authed(itemsHandler.Delete))
	mux.Handle("POST /api/items/{id}/move", authed(itemsHandler.Move))

	// Batch moves.
	mux.Handle("POST /api/moves", authed(movesHandler.Move))
	mux.Handle("POST /api/moves/excluded", authed(movesHandler.Excluded))

	// Photos of items and inventories.
	mux.Handle("POST /api/nodes/{id}/photos", authed(photosHandler.Upload))
	mux.Handle("GET /api/photos/{id}", authed(photosHandler.Get))
	mux.Handle("DELETE /api/photos/{id}", authed(photosHandler.Delete))

	return mux
}
