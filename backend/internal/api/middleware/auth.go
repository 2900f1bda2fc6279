package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobboard/backend/internal/models"
	"jobboard/backend/pkg/utils"
)

// UserClaims claims токена: кто и в какой роли
type UserClaims struct {
	UserID uuid.UUID   `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// ContextKey тип для ключей контекста
type ContextKey string

// UserKey ключ пользователя в контексте запроса
const UserKey ContextKey = "user"

var errUnknownRole = errors.New("unknown role")

// Auth проверка bearer-токена, выданного внешним сервисом идентификации
type Auth struct {
	secret []byte
	logger *zap.Logger
}

func NewAuth(secret string, logger *zap.Logger) *Auth {
	return &Auth{secret: []byte(secret), logger: logger}
}

// Middleware кладет пользователя из токена в контекст; без валидного токена 401
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Получение токена из заголовка
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.WriteUnauthorized(w, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.WriteUnauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := a.ValidateToken(parts[1])
		if err != nil {
			a.logger.Debug("Token rejected", zap.Error(err))
			utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		user := models.User{ID: claims.UserID, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// ValidateToken разбирает токен и проверяет подпись, срок и роль
func (a *Auth) ValidateToken(tokenString string) (*UserClaims, error) {
	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	switch claims.Role {
	case models.RoleAdmin, models.RoleEmployer, models.RoleCandidate:
	default:
		return nil, errUnknownRole
	}
	if claims.UserID == uuid.Nil {
		return nil, errors.New("token has no user id")
	}
	return claims, nil
}

// GenerateToken выпуск токена; используется в тестах и для локальной отладки
func (a *Auth) GenerateToken(user models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &UserClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// WithUser контекст с пользователем
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext пользователь текущего запроса
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(UserKey).(models.User)
	return user, ok
}
