// Package provisioner hands provisioning intents to the external fulfillment
// process. It never provisions anything itself.
package provisioner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okanji/platform-services-registry-web/internal/models"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
	"github.com/okanji/platform-services-registry-web/pkg/logger"
)

// Common errors
var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrRejected means fulfillment refused the intent; retrying will not help.
	ErrRejected = errors.New("intent rejected by fulfillment")
)

// Kind is what fulfillment should do with a project.
type Kind string

const (
	KindCreate      Kind = "create"
	KindEdit        Kind = "edit"
	KindDelete      Kind = "delete"
	KindReprovision Kind = "reprovision"
)

// KindFor maps an approved request type to its provisioning kind.
func KindFor(t models.RequestType) (Kind, error) {
	switch t {
	case models.RequestCreate:
		return KindCreate, nil
	case models.RequestEdit:
		return KindEdit, nil
	case models.RequestDelete:
		return KindDelete, nil
	case models.RequestReprovision:
		return KindReprovision, nil
	}
	return "", fmt.Errorf("%w: request type %q", ErrInvalidInput, t)
}

// Intent is the hand-off document sent to fulfillment.
type Intent struct {
	RequestID    uuid.UUID       `json:"requestId"`
	ProjectID    uuid.UUID       `json:"projectId"`
	LicencePlate string          `json:"licencePlate"`
	Kind         Kind            `json:"kind"`
	Project      *models.Project `json:"project,omitempty"`
}

// Receipt is the acknowledgement returned by fulfillment.
type Receipt struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Provisioner delivers intents to fulfillment.
type Provisioner interface {
	Submit(ctx context.Context, intent *Intent) (*Receipt, error)
}

// HTTPProvisioner posts intents to the fulfillment endpoint.
type HTTPProvisioner struct {
	client *resty.Client
}

func NewHTTPProvisioner(baseURL string, timeout time.Duration) *HTTPProvisioner {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &HTTPProvisioner{client: client}
}

func (p *HTTPProvisioner) Submit(ctx context.Context, intent *Intent) (*Receipt, error) {
	if intent == nil || intent.ProjectID == uuid.Nil || intent.Kind == "" {
		return nil, ErrInvalidInput
	}

	var receipt Receipt
	var failure struct {
		Message string `json:"message"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", intent.RequestID.String()).
		SetBody(intent).
		SetResult(&receipt).
		SetError(&failure).
		Post("/provisioning-intents")
	if err != nil {
		return nil, appErr.Transport(err, "submit provisioning intent")
	}

	switch code := resp.StatusCode(); {
	case code >= 200 && code < 300:
		logger.L().Info("provisioning intent accepted",
			zap.String("licence_plate", intent.LicencePlate),
			zap.String("kind", string(intent.Kind)),
			zap.String("reference", receipt.Reference))
		return &receipt, nil
	case code >= 400 && code < 500 && code != http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %d %s", ErrRejected, code, failure.Message)
	default:
		return nil, appErr.Transport(fmt.Errorf("status %d", code), "submit provisioning intent")
	}
}

// LogProvisioner records intents in the log when no fulfillment endpoint is configured.
type LogProvisioner struct{}

func (LogProvisioner) Submit(ctx context.Context, intent *Intent) (*Receipt, error) {
	if intent == nil {
		return nil, ErrInvalidInput
	}
	logger.L().Warn("no fulfillment endpoint configured, intent logged only",
		zap.String("licence_plate", intent.LicencePlate),
		zap.String("kind", string(intent.Kind)))
	return &Receipt{Status: "logged"}, nil
}

var (
	_ Provisioner = (*HTTPProvisioner)(nil)
	_ Provisioner = LogProvisioner{}
)
