package repository

import (
	"errors"

	"gorm.io/gorm"

	"terrasapp_server/pkg/errorx"
)

// dbErrorCode 记录不存在映射为 CodeNotFound，供上层返回 404 语义的业务错误
func dbErrorCode(err error) int {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.CodeNotFound
	}
	return errorx.CodeDBError
}

func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errorx.Wrap(err, dbErrorCode(err), msg)
}

func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errorx.Wrapf(err, dbErrorCode(err), format, args...)
}
