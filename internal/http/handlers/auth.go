package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DonaldKnut/marketdotcom/internal/http/middleware"
	"github.com/DonaldKnut/marketdotcom/internal/http/validation"
	"github.com/DonaldKnut/marketdotcom/internal/modules/email"
	"github.com/DonaldKnut/marketdotcom/internal/modules/users"
	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

type AuthHandler struct {
	Users      *users.Service
	Emails     *email.Sender
	SessionCfg middleware.SessionCfg
}

func NewAuthHandler(svc *users.Service, emails *email.Sender, sessionCfg middleware.SessionCfg) *AuthHandler {
	return &AuthHandler{Users: svc, Emails: emails, SessionCfg: sessionCfg}
}

type registerInput struct {
	Name       string `json:"name" binding:"required,min=2,max=255"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"omitempty,max=32"`
	Password   string `json:"password" binding:"required,min=6,max=72"`
	ReferredBy string `json:"referredBy" binding:"omitempty,max=32"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var in registerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid registration data.", validation.FromBindError(err, &in)))
		return
	}

	u, err := h.Users.Register(c.Request.Context(), users.RegisterInput{
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Password:   in.Password,
		ReferredBy: in.ReferredBy,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	if u.EmailVerificationCode != nil {
		h.Emails.SendVerificationCode(c.Request.Context(), u.Email, u.Name, *u.EmailVerificationCode)
	}

	sess, err := middleware.CreateSession(h.SessionCfg, u.ID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	setSessionCookie(c, h.SessionCfg, sess)

	c.JSON(http.StatusCreated, gin.H{
		"user":    userJSON(u),
		"message": "Registration successful. Check your email for the verification code.",
	})
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid login data.", validation.FromBindError(err, &in)))
		return
	}

	u, err := h.Users.Authenticate(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		if err == users.ErrInvalidCredentials {
			middleware.Fail(c, apperr.UnauthorizedErr("Invalid email or password."))
			return
		}
		middleware.Fail(c, err)
		return
	}

	sess, err := middleware.CreateSession(h.SessionCfg, u.ID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	setSessionCookie(c, h.SessionCfg, sess)

	c.JSON(http.StatusOK, gin.H{"user": userJSON(u)})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(h.SessionCfg.CookieName); err == nil && sessionID != "" {
		_ = middleware.DeleteSession(h.SessionCfg, sessionID)
	}
	c.SetCookie(h.SessionCfg.CookieName, "", -1, "/", "", h.SessionCfg.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out."})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	cu, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	u, err := h.Users.GetByID(c.Request.Context(), cu.ID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userJSON(u)})
}

type verifyEmailInput struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var in verifyEmailInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid verification data.", validation.FromBindError(err, &in)))
		return
	}

	if err := h.Users.VerifyEmail(c.Request.Context(), in.Email, in.Code); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified."})
}

func setSessionCookie(c *gin.Context, cfg middleware.SessionCfg, sess *middleware.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetCookie(cfg.CookieName, sess.ID, maxAge, "/", "", cfg.Secure, true)
}

func userJSON(u users.User) gin.H {
	return gin.H{
		"id":            u.ID,
		"name":          u.Name,
		"email":         u.Email,
		"phone":         u.Phone,
		"role":          u.Role,
		"walletBalance": u.WalletBalance,
		"points":        u.Points,
		"referralCode":  u.ReferralCode,
		"emailVerified": u.EmailVerifiedAt != nil,
		"createdAt":     u.CreatedAt,
	}
}
