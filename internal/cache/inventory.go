package cache

import (
	"fmt"
	"time"
)

const (
	RevokedTokenKeyPrefix = "auth:revoked:%s"
	ResetTokenKeyPrefix   = "auth:reset:%s"
	EmailCodeKeyPrefix    = "auth:verify:%d"
)

const (
	ResetTokenTTL = time.Hour
	EmailCodeTTL  = 10 * time.Minute
)

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenKeyPrefix, jti)
}

func ResetTokenKey(token string) string {
	return fmt.Sprintf(ResetTokenKeyPrefix, token)
}

func EmailCodeKey(userID uint) string {
	return fmt.Sprintf(EmailCodeKeyPrefix, userID)
}
