package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/teacher"
)

var (
	authCookieName     = "token"
	tokenContextKey    = "teacherToken"
	contextTeacherKey  = "teacher"
	authHeaderScheme   = "Bearer"
	jwtSigningMethodHS = jwt.SigningMethodHS256
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

func GetTeacherClaims(conf *core.Config, tchr teacher.Teacher) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   tchr.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: tchr.Email,
		Name:  tchr.FullName(),
	}
}

func authenticate(ctx echo.Context, email, pwd string, svc teacher.ServiceInterface) (teacher.Teacher, error) {
	tchr, err := svc.GetByEmail(ctx.Request().Context(), email)
	if err != nil {
		if errors.Cause(err) == teacher.ErrNotFound {
			// same error as a wrong password; do not leak which emails exist
			return teacher.Teacher{}, errInvalidCredentials()
		}
		return teacher.Teacher{}, errors.Wrap(err, "finding teacher by email")
	}
	if err = tchr.CheckPassword(pwd); err != nil {
		return teacher.Teacher{}, errInvalidCredentials()
	}
	return tchr, nil
}

// GenerateToken generates a signed JWT token string representing the teacher Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwtSigningMethodHS, claims)

	ss, err := token.SignedString(conf.SecretKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

// jwtMiddleware authenticates requests bearing a JWT, either in the auth
// cookie or in the "Authorization: Bearer" header. The parsed token is made
// available in the request context.
func jwtMiddleware(conf *core.Config) echo.MiddlewareFunc {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwtSigningMethodHS.Alg() {
			return nil, errors.Errorf("unexpected jwt signing method=%v", token.Header["alg"])
		}
		return conf.SecretKey, nil
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			raw := extractToken(ctx)
			if raw == "" {
				return errJWTMissing
			}

			token, err := jwt.ParseWithClaims(raw, new(Claims), keyFunc)
			if err != nil || !token.Valid {
				return errJWTInvalid
			}
			ctx.Set(tokenContextKey, token)
			return next(ctx)
		}
	}
}

func extractToken(ctx echo.Context) string {
	if cookie, err := ctx.Cookie(authCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > len(authHeaderScheme) && strings.EqualFold(auth[:len(authHeaderScheme)], authHeaderScheme) {
		return strings.TrimSpace(auth[len(authHeaderScheme):])
	}
	return ""
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextTeacher(ctx echo.Context, svc teacher.ServiceInterface) (teacher.Teacher, error) {
	if tchr, ok := ctx.Get(contextTeacherKey).(teacher.Teacher); ok {
		return tchr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "getting context claims")
	}

	tchr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == teacher.ErrNotFound {
			// the account is gone; the token no longer represents anyone
			return teacher.Teacher{}, errUnauthorized
		}
		return teacher.Teacher{}, errors.Wrap(err, "finding teacher by ID")
	}
	ctx.Set(contextTeacherKey, tchr)
	return tchr, nil
}

func setAuthCookie(ctx echo.Context, conf *core.Config, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(conf.Server.JWTExpirationDelta / time.Second),
		HttpOnly: true,
		Secure:   !conf.Debug,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAuthCookie(ctx echo.Context, conf *core.Config) {
	ctx.SetCookie(&http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !conf.Debug,
		SameSite: http.SameSiteStrictMode,
	})
}
