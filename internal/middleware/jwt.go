package middleware

import (
	"fmt"
	"net/http"

	"bizcore/internal/common"
	"bizcore/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTMiddleware validates the bearer token and resolves the authenticated
// principal: user ID from the subject claim, tenant and admin flag from the
// user record. Token issuance happens elsewhere; this only consumes tokens.
func JWTMiddleware(userRepo repositories.UserRepository, jwtSecret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			token, err := jwt.Parse(auth, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				return nil, fmt.Errorf("invalid token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return nil, fmt.Errorf("invalid claims")
			}
			sub, ok := claims["sub"].(string)
			if !ok {
				return nil, fmt.Errorf("missing subject claim")
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				return nil, fmt.Errorf("invalid subject claim")
			}

			user, err := userRepo.GetByID(c.Request().Context(), userID)
			if err != nil {
				return nil, fmt.Errorf("unknown user")
			}

			ctx := common.WithPrincipal(c.Request().Context(), user.ID, user.TenantID, user.IsAdmin)
			c.SetRequest(c.Request().WithContext(ctx))

			return token, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	})
}
