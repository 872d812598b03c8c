package types

import (
	"github.com/google/uuid"

	"github.com/okanji/platform-services-registry-web/internal/form"
	"github.com/okanji/platform-services-registry-web/internal/models"
)

type CreateRequestBody struct {
	Type      models.RequestType `json:"type"`
	ProjectID *uuid.UUID         `json:"projectId,omitempty"`
	Form      *form.Values       `json:"form,omitempty"`
}

type DecisionBody struct {
	Decision models.DecisionStatus `json:"decision"`
	Comment  *string               `json:"comment,omitempty"`
}
