package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const ApiKeyHeader = "X-API-Key"

// ApiKey ключ доступа к изменяющим запросам, хранится sha256-хеш в hex
type ApiKey struct {
	Name string `yaml:"name"`
	Hash string `yaml:"hash"`
}

func HashApiKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// RequireApiKey пропускает запрос, только если заголовок содержит один из известных ключей.
// Без настроенных ключей проверка отключена.
func RequireApiKey(keys []ApiKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(keys) == 0 {
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(ApiKeyHeader))
		if key != "" {
			hash := []byte(HashApiKey(key))
			for _, k := range keys {
				if subtle.ConstantTimeCompare(hash, []byte(strings.ToLower(k.Hash))) == 1 {
					c.Set("api_key", k.Name)
					c.Next()
					return
				}
			}
		}

		log.WithField("path", c.FullPath()).Warn("Запрос с неизвестным ключом API")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "неверный ключ API"})
	}
}
