package services

import (
	"context"

	"github.com/clothingloop/server/internal/auditctx"
	"github.com/clothingloop/server/internal/permissions"
)

const (
	auditSuccess = AuditResultSuccess
	auditDenied  = AuditResultDenied
)

// recordAudit logs the supplied entry while tolerating audit failures. The
// request origin fills in the address and user agent when the entry omits them.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	if origin, ok := auditctx.FromContext(ctx); ok {
		if entry.IPAddress == "" {
			entry.IPAddress = origin.IPAddress
		}
		if entry.UserAgent == "" {
			entry.UserAgent = origin.UserAgent
		}
		if origin.RequestID != "" {
			if entry.Metadata == nil {
				entry.Metadata = map[string]any{}
			}
			entry.Metadata["request_id"] = origin.RequestID
		}
	}
	_ = audit.Log(ctx, entry)
}

func actorOf(caller permissions.AuthContext) *string {
	if !caller.Authenticated() {
		return nil
	}
	id := caller.AccountID
	return &id
}
