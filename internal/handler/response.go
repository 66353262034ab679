package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"terrasapp_server/internal/infrastructure/middleware"
	"terrasapp_server/pkg/errorx"
)

// ResponseData 统一响应结构体
type ResponseData struct {
	Code int `json:"code"`           // 业务响应状态码
	Msg  any `json:"msg"`            // 提示信息
	Data any `json:"data,omitempty"` // 数据
}

// HandleSuccess 返回成功响应
func HandleSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, ResponseData{Code: errorx.CodeSuccess, Msg: "success", Data: data})
}

// HandleError 通用错误处理
// 业务错误原样返回错误码和消息；存储/缓存错误与未知错误记录日志后返回服务繁忙
func HandleError(c *gin.Context, err error) {
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) && codeErr.Code != errorx.CodeDBError && codeErr.Code != errorx.CodeCacheError {
		c.JSON(http.StatusOK, ResponseData{Code: codeErr.Code, Msg: codeErr.Msg})
		return
	}

	zap.L().Error("system error",
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
	c.JSON(http.StatusOK, ResponseData{Code: errorx.ErrServerBusy.Code, Msg: errorx.ErrServerBusy.Msg})
}

// HandleParamError 处理参数绑定错误，validator 错误翻译后返回
func HandleParamError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && Trans != nil {
		c.JSON(http.StatusOK, ResponseData{
			Code: errorx.ErrInvalidParam.Code,
			Msg:  RemoveTopStruct(validationErrs.Translate(Trans)),
		})
		return
	}

	// 非 validator 错误（如 JSON 格式错误）
	zap.L().Debug("param bind error", zap.Error(err))
	c.JSON(http.StatusOK, ResponseData{Code: errorx.ErrInvalidParam.Code, Msg: errorx.ErrInvalidParam.Msg})
}

// currentUserId JWTAuth 中间件写入的用户 uuid
func currentUserId(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}
