// Package middleware содержит обёртки HTTP-обработчиков: аутентификацию и журнал запросов.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

type subjectKey struct{}

// Subject возвращает подтверждённый субъект запроса.
func Subject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey{}).(string)
	return subject, ok && subject != ""
}

// WithSubject кладёт субъект в контекст.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

func unauthenticated(w http.ResponseWriter, message string) {
	utils.SendError(w, &models.ErrorResponse{
		StatusCode: http.StatusUnauthorized,
		Kind:       models.Unauthenticated,
		Message:    message,
	})
}

// Auth проверяет bearer-токен HS256 и передаёт дальше claim sub.
type Auth struct {
	secret []byte
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// ParseSubject проверяет токен и возвращает его sub.
func (a *Auth) ParseSubject(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	return token.Claims.GetSubject()
}

// Require пропускает запрос только с действительным токеном.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			unauthenticated(w, "missing bearer token")
			return
		}

		subject, err := a.ParseSubject(tokenString)
		if err != nil || subject == "" {
			unauthenticated(w, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
	})
}
