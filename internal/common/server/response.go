package server

import (
	"net/http"

	"github.com/CarSave/CarSave/internal/common/errs"
	"github.com/gin-gonic/gin"
)

// WriteError 按错误分类映射 HTTP 状态码。
// 内部错误不向客户端暴露细节，由业务侧自行记日志。
func WriteError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindValidation:
		status = http.StatusBadRequest
	case errs.KindConflict:
		status = http.StatusConflict
	case errs.KindUnauthorized:
		status = http.StatusUnauthorized
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"message": errs.Message(err)})
}
