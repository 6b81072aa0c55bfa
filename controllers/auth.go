package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"canaccesible/middleware"
	"canaccesible/models"
	"canaccesible/pkg/config"
	tokenstore "canaccesible/pkg/token"
	utils "canaccesible/pkg/utills"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Register handler
func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			FirstName       string `json:"firstName"`
			LastName        string `json:"lastName"`
			Email           string `json:"email"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirmPassword"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		email := strings.TrimSpace(strings.ToLower(body.Email))
		firstName := strings.TrimSpace(body.FirstName)
		lastName := strings.TrimSpace(body.LastName)
		password := body.Password

		if email == "" || firstName == "" || lastName == "" || password == "" || body.ConfirmPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "First name, last name, email, password, and confirm password are required"})
			return
		}
		if password != body.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Passwords do not match"})
			return
		}
		if !utils.HasLetter(password) || !utils.HasNumber(password) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Password must contain at least one letter and one number"})
			return
		}

		var exists models.User
		if err := db.Where("email = ?", email).First(&exists).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"msg": "Email already exists"})
			return
		} else if err != gorm.ErrRecordNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}

		var role models.Role
		if err := db.Where("role = ?", models.RoleUser).First(&role).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}

		user := models.User{
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
			RoleID:    role.ID,
		}
		if err := user.SetPassword(password); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to set password"})
			return
		}
		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create user"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"msg": "User created", "email": user.Email})
	}
}

// Login handler
func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		email := strings.TrimSpace(strings.ToLower(body.Email))
		password := body.Password

		if email == "" || password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Email and password are required"})
			return
		}

		var user models.User
		if err := db.Preload("Role").Where("email = ?", email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "Invalid credentials"})
			return
		}
		if !user.CheckPassword(password) {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "Invalid credentials"})
			return
		}

		// JWT with 1 day expiry; the role claim lets the client pick message
		// alignment without an extra round trip.
		jti := uuid.NewString()
		claims := jwt.MapClaims{
			"sub":  strconv.Itoa(int(user.ID)),
			"role": user.Role.Role,
			"exp":  time.Now().Add(24 * time.Hour).Unix(),
			"jti":  jti,
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenStr, err := token.SignedString([]byte(config.JWTSecret))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token": tokenStr,
			"user": gin.H{
				"id":        user.ID,
				"firstName": user.FirstName,
				"lastName":  user.LastName,
				"nameFile":  user.NameFile,
				"role":      gin.H{"role": user.Role.Role},
			},
		})
	}
}

// Logout handler
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		jti, _ := c.Get(middleware.ContextJTIKey)
		if s, ok := jti.(string); ok && s != "" {
			tokenstore.RevokeToken(s)
		}
		c.JSON(http.StatusOK, gin.H{"msg": "logged out"})
	}
}
