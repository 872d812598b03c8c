package handlers

import (
	"net/http"

	"github.com/okanji/platform-services-registry-web/internal/api/types"
	"github.com/okanji/platform-services-registry-web/internal/services"
)

type RequestsHandler struct {
	requests  services.RequestService
	decisions services.DecisionService
}

func NewRequestsHandler(requests services.RequestService, decisions services.DecisionService) *RequestsHandler {
	return &RequestsHandler{requests: requests, decisions: decisions}
}

func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body types.CreateRequestBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.requests.CreateRequest(r.Context(), caller, &services.CreateRequestInput{
		Type:      body.Type,
		ProjectID: body.ProjectID,
		Form:      body.Form,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, req)
}

func (h *RequestsHandler) Active(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.requests.ListActive(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}}
	types.WriteJSON(w, http.StatusOK, resp)
}

func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	detail, err := h.requests.GetRequest(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, detail)
}

func (h *RequestsHandler) Decide(w http.ResponseWriter, r *http.Request) {
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
	var body types.DecisionBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.decisions.Decide(r.Context(), caller, &services.DecisionInput{
		RequestID: id,
		Decision:  body.Decision,
		Comment:   body.Comment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, req)
}
