package public

import (
	"strconv"

	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateLocationRequest 创建门店请求
type CreateLocationRequest struct {
	Name            string  `json:"name" binding:"required"`
	Address         string  `json:"address" binding:"required"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	ChannelCategory string  `json:"channel_category" binding:"required"`
}

// UpdateLocationRequest 更新门店请求
type UpdateLocationRequest struct {
	Name            *string  `json:"name"`
	Address         *string  `json:"address"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	ChannelCategory *string  `json:"channel_category"`
}

// CreateLocation 创建门店
func (h *Handler) CreateLocation(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	location, err := h.LocationService.Create(service.CreateLocationInput{
		UserID:          uid,
		Name:            req.Name,
		Address:         req.Address,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		ChannelCategory: req.ChannelCategory,
	})
	if err != nil {
		respondWithMappedError(c, err, locationErrorRules, response.CodeInternal, "门店创建失败")
		return
	}
	response.Success(c, location)
}

// ListMyLocations 获取当前零售商的门店列表
func (h *Handler) ListMyLocations(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	locations, err := h.LocationService.ListByUser(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "门店列表获取失败", err)
		return
	}
	response.Success(c, locations)
}

// GetLocation 获取门店详情
func (h *Handler) GetLocation(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "门店ID无效", nil)
		return
	}
	location, err := h.LocationService.GetOwned(uid, uint(id))
	if err != nil {
		respondWithMappedError(c, err, locationErrorRules, response.CodeInternal, "门店获取失败")
		return
	}
	response.Success(c, location)
}

// GetLocationState 获取门店的报价/合作/订阅状态快照
func (h *Handler) GetLocationState(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "门店ID无效", nil)
		return
	}
	state, err := h.LocationService.State(uid, uint(id))
	if err != nil {
		respondWithMappedError(c, err,
			concatMappedHandlerErrors(locationErrorRules, billingErrorRules),
			response.CodeInternal, "门店状态获取失败")
		return
	}
	response.Success(c, state)
}

// UpdateLocation 更新门店
func (h *Handler) UpdateLocation(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "门店ID无效", nil)
		return
	}
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	location, err := h.LocationService.Update(uid, uint(id), service.UpdateLocationInput{
		Name:            req.Name,
		Address:         req.Address,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		ChannelCategory: req.ChannelCategory,
	})
	if err != nil {
		respondWithMappedError(c, err, locationErrorRules, response.CodeInternal, "门店更新失败")
		return
	}
	response.Success(c, location)
}

// DeleteLocation 删除门店并级联清理关联状态
func (h *Handler) DeleteLocation(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "门店ID无效", nil)
		return
	}
	if err := h.LocationService.Delete(uid, uint(id)); err != nil {
		respondWithMappedError(c, err, locationErrorRules, response.CodeInternal, "门店删除失败")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
