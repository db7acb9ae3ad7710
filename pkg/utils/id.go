package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewID 生成去掉连字符的 uuid，作为各表主键
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewNonce 生成随机十六进制串（重置密码 token 用）
func NewNonce() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
