package textbooks

import (
	"log/slog"

	"github.com/lectoria/lectoria/internal/crud"
)

// NewEndpoints stamps out the textbook CRUD endpoints. Reads are open,
// mutations require the generic object permissions.
func NewEndpoints(store *Store, logger *slog.Logger) *crud.Endpoints[Textbook, CreateInput, Patch, Response] {
	return crud.NewEndpoints("textbooks", store, ToResponse, crud.DefaultPermissionMap(), logger)
}
