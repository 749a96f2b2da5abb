package admin

import (
	"strconv"
	"time"

	"github.com/promostreet/internal/http/response"

	"github.com/gin-gonic/gin"
)

// RenewDueSubscriptions 手动触发到期订阅续费 (Admin)
func (h *Handler) RenewDueSubscriptions(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	processed, err := h.SubscriptionService.RenewDue(time.Now(), limit)
	if err != nil {
		respondError(c, response.CodeInternal, "订阅续费执行失败", err)
		return
	}
	requestLog(c).Infow("admin_renew_subscriptions", "admin_id", adminID, "processed", processed)
	response.Success(c, gin.H{"processed": processed})
}
