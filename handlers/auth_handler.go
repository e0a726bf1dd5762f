// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"reachcrm-server/commons"
	"reachcrm-server/crypto"
	"reachcrm-server/db"
	"reachcrm-server/middlewares"
	"reachcrm-server/models"
	"reachcrm-server/notifications"
	"reachcrm-server/otp"
	"reachcrm-server/ratelimit"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/nyaruka/phonenumbers"
	"gorm.io/gorm"
)

// OTPStore is wired at startup before routes are registered.
var OTPStore *otp.Store

func normalizePhoneNumber(raw string) (string, error) {
	parsed, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", errors.New("number is not valid")
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

func generateSessionToken(c echo.Context, user models.User) (string, error) {
	logger := c.Logger()

	sessionToken, err := crypto.GenerateRandomString("st_long_", 32, "hex")
	if err != nil {
		logger.Errorf("Failed to generate session token: %v", err)
		return "", err
	}

	sessionExp := time.Now().Add(30 * 24 * time.Hour)
	sessionLastused := time.Now()
	userAgent := c.Request().Header.Get("User-Agent")
	ipAddress := c.RealIP()

	session := models.Session{
		UserID:     user.ID,
		Token:      sessionToken,
		LastUsedAt: &sessionLastused,
		ExpiresAt:  &sessionExp,
		UserAgent:  &userAgent,
		IPAddress:  &ipAddress,
	}
	if err := db.Conn.Create(&session).Error; err != nil {
		logger.Errorf("Failed to create session: %v", err)
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "https://reachcrm.app",
		"iat": time.Now().Unix(),
		"sub": user.AccountID,
		"aud": "https://api.reachcrm.app",
		"jti": sessionToken,
		"sid": session.ID,
		"uid": user.ID,
		"exp": session.ExpiresAt.Unix(),
	})

	tokenString, err := token.SignedString([]byte(commons.GetEnv("JWT_SECRET", "default_very_secret_key")))
	if err != nil {
		logger.Errorf("Failed to sign token: %v", err)
		return "", err
	}

	return tokenString, nil
}

// SendOTPHandler godoc
// @Summary      Request a one-time login code
// @Description  Sends a 6-digit verification code to the given phone number.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        sendOTPRequest  body  SendOTPRequest  true  "Send OTP request payload"
// @Success      200 {object} SendOTPResponse     "Code sent"
// @Failure      400 {object} echo.HTTPError      "Bad request, invalid phone number"
// @Failure      429 {object} echo.HTTPError      "Resend requested too soon"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/auth/otp [post]
func SendOTPHandler(c echo.Context) error {
	logger := c.Logger()

	var req SendOTPRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid send OTP request payload:", err)
		return echo.ErrBadRequest
	}

	if req.PhoneNumber == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "phone_number field is required",
		}
	}

	phone, err := normalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		logger.Error("Invalid phone number:", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "phone_number field must be a valid E.164 phone number.",
		}
	}

	if err := middlewares.AdmitIdentity(c, ratelimit.ClassAuthSend, phone); err != nil {
		return err
	}

	code, err := OTPStore.CreateChallenge(phone)
	if err != nil {
		if errors.Is(err, otp.ErrResendTooSoon) {
			return &echo.HTTPError{
				Code:    http.StatusTooManyRequests,
				Message: "A code was sent recently, please wait before requesting another.",
			}
		}
		logger.Errorf("Failed to create OTP challenge: %v", err)
		return echo.ErrInternalServerError
	}

	data := notifications.NotificationData{
		To:   phone,
		Body: fmt.Sprintf("Your ReachCRM verification code is %s. It expires in 5 minutes.", code),
	}
	if err := notifications.DispatchNotification(
		notifications.SMS,
		notifications.DefaultProvider(notifications.SMS),
		data,
	); err != nil {
		logger.Errorf("Failed to dispatch OTP notification: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Debugf("OTP challenge created for %s", phone)
	return respond(c, http.StatusOK, SendOTPResponse{PhoneNumber: phone, ExpiresIn: 300})
}

// VerifyOTPHandler godoc
// @Summary      Verify a one-time login code
// @Description  Verifies the code and returns an access token. Creates the
// account on first login.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        verifyOTPRequest  body  VerifyOTPRequest  true  "Verify OTP request payload"
// @Success      200 {object} VerifyOTPResponse   "Login successful"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      401 {object} echo.HTTPError      "Invalid or expired code"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/auth/otp/verify [post]
func VerifyOTPHandler(c echo.Context) error {
	logger := c.Logger()

	var req VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid verify OTP request payload:", err)
		return echo.ErrBadRequest
	}

	if req.PhoneNumber == "" || req.Code == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "phone_number and code fields are required",
		}
	}

	phone, err := normalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		logger.Error("Invalid phone number:", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "phone_number field must be a valid E.164 phone number.",
		}
	}

	if err := middlewares.AdmitIdentity(c, ratelimit.ClassOTPVerify, phone); err != nil {
		return err
	}

	if err := OTPStore.VerifyChallenge(phone, req.Code); err != nil {
		switch {
		case errors.Is(err, otp.ErrChallengeNotFound), errors.Is(err, otp.ErrCodeExpired):
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Code is expired or was never sent, please request a new one.",
			}
		case errors.Is(err, otp.ErrCodeInvalid):
			return &echo.HTTPError{
				Code:    http.StatusUnauthorized,
				Message: "Code is incorrect.",
			}
		case errors.Is(err, otp.ErrTooManyAttempts):
			return &echo.HTTPError{
				Code:    http.StatusTooManyRequests,
				Message: "Too many incorrect attempts, please request a new code.",
			}
		default:
			logger.Errorf("Failed to verify OTP challenge: %v", err)
			return echo.ErrInternalServerError
		}
	}

	user := models.User{}
	err = db.Conn.Where("phone_number = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{PhoneNumber: phone}
		if req.Email != "" {
			user.Email = &req.Email
		}
		if req.FullName != "" {
			user.FullName = &req.FullName
		}
		if err := db.Conn.Create(&user).Error; err != nil {
			logger.Errorf("Failed to create user: %v", err)
			return echo.ErrInternalServerError
		}
		LogEvent(models.Auth, models.Succeeded, user.ID, "account created", nil)
	} else if err != nil {
		logger.Errorf("Failed to look up user: %v", err)
		return echo.ErrInternalServerError
	}

	if req.DeviceToken != "" {
		if err := db.Conn.Model(&user).UpdateColumn("device_token", req.DeviceToken).Error; err != nil {
			logger.Errorf("Failed to store device token: %v", err)
		}
	}

	tokenString, err := generateSessionToken(c, user)
	if err != nil {
		return echo.ErrInternalServerError
	}

	logger.Debugf("User %s logged in", user.AccountID)
	return respond(c, http.StatusOK, VerifyOTPResponse{
		AccessToken: tokenString,
		User:        userResponse(user),
	})
}

// LogoutHandler godoc
// @Summary      Log out
// @Description  Revokes the current session.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Response            "Logout successful"
// @Failure      401 {object} echo.HTTPError      "Unauthorized"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/auth/logout [post]
func LogoutHandler(c echo.Context) error {
	logger := c.Logger()

	session, ok := c.Get("session").(models.Session)
	if !ok {
		return echo.ErrUnauthorized
	}

	if err := db.Conn.Unscoped().Delete(&models.Session{}, session.ID).Error; err != nil {
		logger.Errorf("Failed to delete session: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusOK, map[string]string{"message": "Logged out successfully."})
}

// ProfileHandler godoc
// @Summary      Get the authenticated user's profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse        "Profile"
// @Failure      401 {object} echo.HTTPError      "Unauthorized"
// @Router       /v1/auth/profile [get]
func ProfileHandler(c echo.Context) error {
	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, userResponse(*user))
}

func userResponse(user models.User) UserResponse {
	resp := UserResponse{
		AccountID:    user.AccountID,
		PhoneNumber:  user.PhoneNumber,
		ContactCount: user.ContactCount,
	}
	if user.Email != nil {
		resp.Email = *user.Email
	}
	if user.FullName != nil {
		resp.FullName = *user.FullName
	}
	return resp
}
