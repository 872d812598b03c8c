package handlers

import (
	"net/http"

	"github.com/okanji/platform-services-registry-web/internal/api/types"
	"github.com/okanji/platform-services-registry-web/internal/form"
	"github.com/okanji/platform-services-registry-web/internal/services"
)

type ProjectsHandler struct {
	projects services.ProjectService
}

func NewProjectsHandler(projects services.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projects}
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.projects.ListProjects(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}}
	types.WriteJSON(w, http.StatusOK, resp)
}

// Get returns the project with its edit-form model and whether a new request may be filed.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.projects.GetProject(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, types.ProjectView{
		Project:  p,
		Editable: services.IsEditable(p),
		Form:     form.ToFormModel(p),
	})
}

func (h *ProjectsHandler) Diff(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var values form.Values
	if err := decodeBody(w, r, &values); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := h.projects.PreviewDiff(r.Context(), caller, id, values)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, patch)
}
