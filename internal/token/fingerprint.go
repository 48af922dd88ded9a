package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// client fingerprintを計算する。
// sha256(User-Agent + IP) のhex。発行時と検証時で同じ式を使う。
func Fingerprint(userAgent string, ip string) string {
	sum := sha256.Sum256([]byte(userAgent + ip))
	return hex.EncodeToString(sum[:])
}

// token平文のhash。revocation setとDB保存用（平文は保存しない）。
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
