package shared

import (
	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 带 request_id 字段的日志实例，串起同一请求的多条日志
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.S().With("request_id", id)
		}
	}
	return logger.S()
}

func logHandlerError(c *gin.Context, appErr *response.AppError, err error) {
	if err == nil {
		return
	}
	RequestLog(c).Errorw("handler_error",
		"code", appErr.Code,
		"message", appErr.Message,
		"error", err,
	)
}

// RespondError 记录原始错误并返回对外消息，内部细节不出响应体
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	logHandlerError(c, appErr, err)
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondErrorWithData 同 RespondError，响应体附带数据
func RespondErrorWithData(c *gin.Context, code int, msg string, data interface{}, err error) {
	appErr := response.WrapError(code, msg, err)
	logHandlerError(c, appErr, err)
	response.ErrorWithData(c, appErr.Code, appErr.Message, data)
}
