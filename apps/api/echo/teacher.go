package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/teacher"
)

type authApi struct {
	svc      teacher.ServiceInterface
	validate *validator.Validate
	conf     *core.Config
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		svc:      deps.TeacherSvc,
		validate: deps.Validate,
		conf:     deps.Conf,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/signup", api.signup)
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)

	// authed endpoints
	ag.GET("/me", api.me, jwt)
}

// Handlers

func (api *authApi) signup(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	tchr, err := api.svc.Signup(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up teacher")
	}

	token, err := GenerateToken(api.conf, GetTeacherClaims(api.conf, tchr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	setAuthCookie(ctx, api.conf, token)

	return ctx.JSON(http.StatusCreated, AuthResponse{Token: token, Teacher: tchr})
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tchr, err := authenticate(ctx, data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}

	token, err := GenerateToken(api.conf, GetTeacherClaims(api.conf, tchr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	setAuthCookie(ctx, api.conf, token)

	return ctx.JSON(http.StatusOK, AuthResponse{Token: token, Teacher: tchr})
}

func (api *authApi) logout(ctx echo.Context) error {
	// tokens are stateless; logging out only discards the cookie
	clearAuthCookie(ctx, api.conf)
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Logged out."})
}

func (api *authApi) me(ctx echo.Context) error {
	tchr, err := getContextTeacher(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tchr)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	AuthResponse struct {
		Token   string          `json:"token"`
		Teacher teacher.Teacher `json:"teacher"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
