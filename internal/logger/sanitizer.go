package logger

import (
	"regexp"
	"strings"
)

const masked = "***MASKED***"

// センシティブなキーのパターン（大文字小文字を区別しない）
var sensitiveKeyPatterns = []string{
	"password",
	"token",
	"api_key",
	"apikey",
	"secret",
	"ignore_secret",
	"github_token",
	"authorization",
	"auth",
	"credential",
	"private_key",
	"access_token",
}

// tokenPrefixes はマスク後も残すトークンのプレフィックス
var tokenPrefixes = []string{"github_pat_", "ghp_", "ghs_", "ghu_", "gho_", "Bearer ", "token ", "Basic "}

// センシティブな値のパターン（正規表現）
var sensitiveValuePatterns = []*regexp.Regexp{
	// GitHub personal / app / user / OAuth tokens
	regexp.MustCompile(`^gh[psuo]_[A-Za-z0-9]{36,}$`),
	// GitHub fine-grained personal access tokens
	regexp.MustCompile(`^github_pat_[A-Za-z0-9_]{22,}$`),
	// Authorization headers
	regexp.MustCompile(`(?i)^Bearer\s+[A-Za-z0-9\-_\.]{20,}$`),
	regexp.MustCompile(`(?i)^token\s+[A-Za-z0-9\-_\.]{20,}$`),
	regexp.MustCompile(`(?i)^Basic\s+[A-Za-z0-9+/=]{8,}$`),
}

// SanitizeValue は値がセンシティブかどうかを判定し、必要に応じてマスクする
func SanitizeValue(value interface{}) interface{} {
	if isSensitiveValue(value) {
		return maskValue(value)
	}
	return value
}

// SanitizeKeyValue はキーと値の組み合わせをチェックし、センシティブな情報をマスクする
func SanitizeKeyValue(key string, value interface{}) (string, interface{}) {
	if isSensitiveKey(key) {
		// Authorization ヘッダはスキーム名を残す
		if strings.EqualFold(key, "authorization") && isSensitiveValue(value) {
			return key, maskValue(value)
		}
		return key, masked
	}
	if isSensitiveValue(value) {
		return key, maskValue(value)
	}
	return key, value
}

// SanitizeArgs はログ引数（key-valueペア）をサニタイズする
func SanitizeArgs(args ...interface{}) []interface{} {
	if len(args) == 0 {
		return args
	}

	sanitized := make([]interface{}, len(args))
	copy(sanitized, args)

	// 偶数インデックスがkey、奇数インデックスがvalue
	for i := 0; i < len(sanitized)-1; i += 2 {
		if key, ok := sanitized[i].(string); ok {
			_, sanitized[i+1] = SanitizeKeyValue(key, sanitized[i+1])
		}
	}
	return sanitized
}

// isSensitiveKey はキーがセンシティブかどうかを判定する
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if lowerKey == pattern ||
			strings.HasPrefix(lowerKey, pattern+"_") ||
			strings.HasSuffix(lowerKey, "_"+pattern) ||
			strings.Contains(lowerKey, "_"+pattern+"_") {
			return true
		}
	}
	return false
}

// isSensitiveValue は値がセンシティブかどうかを判定する
func isSensitiveValue(value interface{}) bool {
	str, ok := value.(string)
	if !ok || str == "" {
		return false
	}
	for _, pattern := range sensitiveValuePatterns {
		if pattern.MatchString(str) {
			return true
		}
	}
	return false
}

// maskValue はセンシティブな値をマスクする（プレフィックスを保持）
func maskValue(value interface{}) string {
	str, ok := value.(string)
	if !ok || str == "" {
		return masked
	}
	for _, prefix := range tokenPrefixes {
		if strings.HasPrefix(str, prefix) {
			return prefix + masked
		}
	}
	return masked
}
