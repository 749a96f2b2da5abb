package public

import "github.com/promostreet/internal/provider"

// Handler 零售商侧接口处理器入口
// 说明：该处理器仅用于零售商与公开兑换 API。
type Handler struct {
	*provider.Container
}

// New 创建零售商侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
