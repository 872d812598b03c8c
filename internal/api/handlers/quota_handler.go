package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okanji/platform-services-registry-web/internal/quota"
)

type QuotaHandler struct {
	catalog *quota.Catalog
}

func NewQuotaHandler(catalog *quota.Catalog) *QuotaHandler {
	return &QuotaHandler{catalog: catalog}
}

// Options lists the selectable tiers of a resource kind, smallest first.
func (h *QuotaHandler) Options(w http.ResponseWriter, r *http.Request) {
	kind, err := quota.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	tiers, err := h.catalog.TiersFor(kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, tiers)
}
