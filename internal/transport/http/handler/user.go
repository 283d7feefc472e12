package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vidhub/internal/app"
	"vidhub/internal/model"
	"vidhub/internal/transport/http/middleware"
	"vidhub/internal/transport/http/response"
)

// CookieConfig controls the token cookies.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type UserHandler struct {
	auth     *app.AuthService
	tokens   *app.TokenService
	profiles *app.ProfileService
	cookies  CookieConfig
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword" form:"oldPassword"`
	NewPassword     string `json:"newPassword" form:"newPassword"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" form:"fullName"`
	Email    string `json:"email" form:"email"`
}

func NewUserHandler(auth *app.AuthService, tokens *app.TokenService, profiles *app.ProfileService, cookies CookieConfig) *UserHandler {
	return &UserHandler{
		auth:     auth,
		tokens:   tokens,
		profiles: profiles,
		cookies:  cookies,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	avatar, err := formUpload(c, "avatar")
	if err != nil {
		response.Fail(c, err)
		return
	}
	cover, err := formUpload(c, "coverImage")
	if err != nil {
		response.Fail(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), app.RegisterInput{
		Username:   c.PostForm("username"),
		Email:      c.PostForm("email"),
		Password:   c.PostForm("password"),
		FullName:   c.PostForm("fullName"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, user, "user registered successfully")
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), app.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.setTokenCookies(c, result.AccessToken, result.RefreshToken)
	response.OK(c, result, "user logged in successfully")
}

func (h *UserHandler) Logout(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), user.ID); err != nil {
		response.Fail(c, err)
		return
	}

	h.clearTokenCookies(c)
	response.OK(c, gin.H{}, "user logged out")
}

func (h *UserHandler) RefreshToken(c *gin.Context) {
	presented, _ := c.Cookie(middleware.RefreshTokenCookie)
	if presented == "" && c.Request.ContentLength != 0 {
		var req refreshRequest
		if err := bind(c, &req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, err := h.tokens.Refresh(c.Request.Context(), presented)
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.setTokenCookies(c, pair.AccessToken, pair.RefreshToken)
	response.OK(c, pair, "access token refreshed")
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), user.ID, app.ChangePasswordInput{
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	}); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{}, "password changed successfully")
}

func (h *UserHandler) CurrentUser(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, user, "current user fetched successfully")
}

func (h *UserHandler) UpdateAccount(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req updateAccountRequest
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}

	updated, err := h.auth.UpdateAccount(c.Request.Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, updated, "account details updated successfully")
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", h.auth.UpdateAvatar, "avatar image updated successfully")
}

func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", h.auth.UpdateCoverImage, "cover image updated successfully")
}

func (h *UserHandler) updateImage(c *gin.Context, field string, update func(ctx context.Context, userID string, file *app.Upload) (*model.User, error), message string) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	file, err := formUpload(c, field)
	if err != nil {
		response.Fail(c, err)
		return
	}

	updated, err := update(c.Request.Context(), user.ID, file)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, updated, message)
}

func (h *UserHandler) ChannelProfile(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	profile, err := h.profiles.GetChannelProfile(c.Request.Context(), user.ID, c.Param("username"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, profile, "user channel fetched successfully")
}

func (h *UserHandler) WatchHistory(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		response.Fail(c, err)
		return
	}

	history, err := h.profiles.GetWatchHistory(c.Request.Context(), user.ID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, history, "watch history fetched successfully")
}

func (h *UserHandler) setTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, accessToken, int(h.cookies.AccessTTL.Seconds()), "/", "", h.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, refreshToken, int(h.cookies.RefreshTTL.Seconds()), "/", "", h.cookies.Secure, true)
}

func (h *UserHandler) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", "", h.cookies.Secure, true)
}
