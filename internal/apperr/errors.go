package apperr

import (
	"errors"
	"fmt"
)

// 错误分类：所有上层组件只依赖这几个哨兵错误，
// 平台错误和数据库错误在边界处统一归类。
var (
	ErrInvalidInput      = errors.New("invalid input")      // 参数非法（时长格式、ID格式），不产生任何状态变更
	ErrPermissionDenied  = errors.New("permission denied")  // 权限不足（操作者等级不够，或机器人缺少平台权限）
	ErrNotFound          = errors.New("not found")          // 目标不存在（已离开服务器、记录已不存在、警告列表为空）
	ErrTransient         = errors.New("transient failure")  // 平台API超时/限流等临时故障
	ErrStorageCorruption = errors.New("storage corruption") // 存储文档损坏，已降级为空文档
)

// InvalidInput 构造带说明的参数错误
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidInput}, args...)...)
}

// IsInvalidInput 是否为参数错误
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsPermissionDenied 是否为权限错误
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsNotFound 是否为未找到错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient 是否为临时故障
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
