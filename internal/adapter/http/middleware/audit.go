package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog records successful spends and top-ups. Handlers may set
// CtxResourceID to attach the transaction id.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 || c.Request.Method != http.MethodPost {
			return
		}

		action, resourceType := mapPathToAction(c.FullPath())
		if action == "" {
			return
		}

		details, _ := json.Marshal(map[string]any{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.NewString(),
			AccountID:    c.GetString(CtxAccountID),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.GetString(CtxResourceID),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

// CtxResourceID is set by handlers to the transaction id they produced.
const CtxResourceID = "audit_resource_id"

// mapPathToAction matches on the route template so path parameters do not matter.
func mapPathToAction(route string) (domain.AuditAction, string) {
	switch {
	case strings.HasSuffix(route, "/votes"):
		return domain.AuditActionVote, "candidate"
	case strings.HasSuffix(route, "/gifts"):
		return domain.AuditActionGift, "candidate"
	case strings.HasSuffix(route, "/purchases"):
		return domain.AuditActionTicket, "ticket"
	case strings.HasSuffix(route, "/submissions"):
		return domain.AuditActionForm, "form"
	case strings.HasSuffix(route, "/wallet/topup"):
		return domain.AuditActionTopup, "account"
	}
	return "", ""
}
