package service

import "errors"

// 业务错误分级，transport 层统一映射成 HTTP 状态
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrUpstream     = errors.New("upstream failure")
)
