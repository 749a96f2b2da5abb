package admin

import (
	"strconv"
	"strings"

	"github.com/promostreet/internal/cache"
	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListUsers 获取零售商列表 (Admin)
func (h *Handler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	users, total, err := h.UserRepo.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "用户列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, users, response.BuildPagination(page, pageSize, total))
}

// GetUser 获取零售商详情 (Admin)
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "用户ID无效", nil)
		return
	}
	user, err := h.UserRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, response.CodeInternal, "用户获取失败", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "用户不存在", nil)
		return
	}

	account, err := h.CreditService.GetAccount(user.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "信用账户获取失败", err)
		return
	}
	locations, err := h.LocationService.ListByUser(user.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "门店获取失败", err)
		return
	}
	response.Success(c, gin.H{
		"user":      user,
		"credit":    account,
		"locations": locations,
	})
}

// UpdateUserStatusRequest 更新用户状态请求
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateUserStatus 启用/禁用零售商账号 (Admin)
func (h *Handler) UpdateUserStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "用户ID无效", nil)
		return
	}
	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status != constants.UserStatusActive && status != constants.UserStatusDisabled {
		respondError(c, response.CodeBadRequest, "用户状态无效", nil)
		return
	}

	user, err := h.UserRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, response.CodeInternal, "用户获取失败", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "用户不存在", nil)
		return
	}
	user.Status = status
	if err := h.UserRepo.Update(user); err != nil {
		respondError(c, response.CodeInternal, "用户更新失败", err)
		return
	}
	// 状态变更立即失效鉴权快照，禁用对下一个请求生效
	_ = cache.DelUserAuthState(c.Request.Context(), user.ID)
	requestLog(c).Infow("admin_update_user_status", "user_id", user.ID, "status", status)
	response.Success(c, user)
}
