package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	userContextKey       = "auth.user"
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
)

// currentUser достаёт аутентифицированного пользователя из контекста запроса.
func currentUser(c *gin.Context) (domain.User, bool) {
	value, ok := c.Get(userContextKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := value.(domain.User)
	return user, ok
}

// authMiddleware проверяет Bearer-токен через identity provider и кладёт
// пользователя в контекст запроса.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		user, err := s.identity.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// requireAdmin пропускает только администраторов.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok || !user.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "forbidden"})
			return
		}
		c.Next()
	}
}

// bodyCaptureWriter дублирует ответ в буфер для idempotency-кэша.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// idempotencyMiddleware обслуживает заголовок Idempotency-Key на
// мутирующих операциях: повтор того же запроса отдаёт закэшированный
// ответ, тот же ключ с другим телом отклоняется.
func (s *Server) idempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.idempotency == nil {
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(idempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		// Хэш считается по конкретному URL, а не по шаблону маршрута:
		// один ключ на разные заказы обязан давать mismatch.
		record, err := s.idempotency.CreateProcessing(key, requestHash(c.Request.Method, c.Request.URL.Path, body), time.Now().UTC().Add(idempotencyTTL))
		if err != nil {
			s.replayIdempotency(c, record, err)
			return
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		status := writer.Status()
		responseBody := writer.buf.Bytes()
		if status >= http.StatusOK && status < http.StatusMultipleChoices {
			err = s.idempotency.MarkDone(key, responseBody, status)
		} else {
			err = s.idempotency.MarkFailed(key, responseBody, status)
		}
		if err != nil {
			s.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
		}
	}
}

// replayIdempotency обрабатывает повторное использование ключа.
func (s *Server) replayIdempotency(c *gin.Context, record domain.IdempotencyRecord, createErr error) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Error: "idempotency key is already used with different request payload"})
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			if len(record.ResponseBody) == 0 {
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "idempotency cache is empty"})
				return
			}
			c.Abort()
			c.Data(record.HTTPStatus, "application/json", record.ResponseBody)
		case domain.IdempotencyStatusProcessing:
			c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Error: "request with the same idempotency key is already processing"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "unexpected idempotency record state"})
		}
	default:
		s.logger.WithError(createErr).Warn("failed to create idempotency record")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func requestHash(method, path string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write([]byte{'|'})
	sum.Write([]byte(path))
	sum.Write([]byte{'|'})
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}

// requestLogger пишет access-лог в стиле остальных компонентов.
func requestLogger(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("http request handled")
	}
}
