package controllers

import (
	"net/http"
	"strings"

	"canaccesible/models"
	utils "canaccesible/pkg/utills"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Profile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)

		var user models.User
		if err := db.Preload("Role").First(&user, ident.UserID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
			return
		}

		if c.Request.Method == http.MethodGet {
			c.JSON(http.StatusOK, gin.H{
				"id":        user.ID,
				"firstName": user.FirstName,
				"lastName":  user.LastName,
				"email":     user.Email,
				"nameFile":  user.NameFile,
				"role":      gin.H{"role": user.Role.Role},
			})
			return
		}

		// PUT
		var body struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
			Email     string `json:"email"`
			NameFile  string `json:"nameFile"`
			Password  string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		if v := strings.TrimSpace(body.FirstName); v != "" {
			user.FirstName = v
		}
		if v := strings.TrimSpace(body.LastName); v != "" {
			user.LastName = v
		}
		if v := strings.TrimSpace(body.NameFile); v != "" {
			user.NameFile = v
		}

		newEmail := strings.TrimSpace(strings.ToLower(body.Email))
		if newEmail != "" && newEmail != user.Email {
			var t models.User
			if err := db.Where("email = ?", newEmail).First(&t).Error; err == nil {
				c.JSON(http.StatusConflict, gin.H{"msg": "Email already exists"})
				return
			}
			user.Email = newEmail
		}

		if body.Password != "" {
			if !utils.HasLetter(body.Password) || !utils.HasNumber(body.Password) {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "New password must contain at least one letter and one number"})
				return
			}
			if err := user.SetPassword(body.Password); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to set password"})
				return
			}
		}

		if err := db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to update profile"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "Profile updated successfully"})
	}
}
