package utils

import (
	"os"
	"strings"

	"github.com/google/uuid"
)

// IsValidUUID - Kiểm tra format UUID hợp lệ
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil && len(u) == 36
}

// NormalizeEmail trim + lower-case, dùng cho cả register và login
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// StringPtr trả về nil cho chuỗi rỗng
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// TrimmedOrNil trim chuỗi; nil hoặc rỗng sau trim -> nil
func TrimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	return StringPtr(strings.TrimSpace(*s))
}

// GetEnvVariable đọc env, rỗng -> fallback
func GetEnvVariable(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
