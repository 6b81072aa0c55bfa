package controllers

import (
	"net/http"

	"canaccesible/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func ListNotifications(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		var notifs []models.Notification
		err := db.Where("user_id = ?", ident.UserID).Order("created_at DESC").Find(&notifs).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}
		out := make([]gin.H, 0, len(notifs))
		for _, n := range notifs {
			out = append(out, gin.H{
				"id":          n.ID,
				"kind":        n.Kind,
				"referenceId": n.ReferenceID,
				"body":        n.Body,
				"seen":        n.Seen,
				"createdAt":   n.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

func MarkNotificationSeen(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		id := paramUint(c, "notification_id")

		res := db.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", id, ident.UserID).
			Update("seen", true)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"msg": "notification not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "seen"})
	}
}
