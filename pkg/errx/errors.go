// Package errx 定义带错误码的错误，调用方用 Is 按错误码判断失败类型
package errx

import (
	"errors"
	"fmt"
)

// Code 错误码
type Code string

// Error 带错误码的错误，Err 为底层原因
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建不带底层原因的错误
func New(code Code, msg string) *Error { return &Error{Code: code, Msg: msg} }

// Wrap 用错误码包装底层错误，Unwrap 返回 err
func Wrap(code Code, err error, msg string) *Error { return &Error{Code: code, Msg: msg, Err: err} }

// Is 判断错误链中第一个 *Error 的错误码是否为 code
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

const (
	// URL 无法解析或缺少主机
	CodeInvalidURL    Code = "INVALID_URL"
	// 导出记录或 HAR 文档格式错误
	CodeInvalidRecord Code = "INVALID_RECORD"
	// 数据库读写失败
	CodeStorage       Code = "STORAGE"
	// 配置文件无法读取或解析
	CodeInvalidConfig Code = "INVALID_CONFIG"
)
