package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/okanji/platform-services-registry-web/internal/events"
	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/pkg/logger"
)

// invalidate publishes the scopes touched by a committed change. The change
// is already durable, so a failed publish is logged and not returned.
func invalidate(ctx context.Context, pub InvalidationPublisher, reason events.Reason, req *models.Request) {
	if pub == nil {
		return
	}
	scopes := []string{
		events.ProjectRequests(req.LicencePlate),
		events.RoleRequests(string(RoleAdmin)),
		events.RoleRequests(string(RoleUser)),
	}
	if reason == events.RequestApproved {
		scopes = append(scopes, events.Project(req.LicencePlate), events.Projects)
	}
	ev := events.Invalidation{
		Reason:       reason,
		Scopes:       scopes,
		RequestID:    req.ID.String(),
		LicencePlate: req.LicencePlate,
	}
	if err := pub.Publish(ctx, ev); err != nil {
		logger.L().Warn("publish invalidation failed",
			zap.Error(err),
			zap.String("request_id", req.ID.String()),
			zap.String("reason", string(reason)))
	}
}
