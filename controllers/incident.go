package controllers

import (
	"net/http"
	"strings"
	"time"

	"canaccesible/models"
	"canaccesible/pkg/cache"
	"canaccesible/pkg/config"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func incidentListKey() string {
	return cache.KeyFromStrings("incidents", "list")
}

func invalidateIncidentList() {
	cache.Default().Delete(incidentListKey())
}

func incidentView(in *models.Incident) gin.H {
	return gin.H{
		"id":          in.ID,
		"userId":      in.UserID,
		"title":       in.Title,
		"description": in.Description,
		"category":    in.Category,
		"latitude":    in.Latitude,
		"longitude":   in.Longitude,
		"nameFile":    in.NameFile,
		"status":      in.Status,
		"createdAt":   in.CreatedAt,
		"likes":       len(in.Likes),
		"comments":    len(in.Comments),
		"user":        in.User.PublicView(),
	}
}

// ListIncidents serves the public incident feed, newest first. The rendered
// list is cached briefly; any incident write invalidates it.
func ListIncidents(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := incidentListKey()
		if v, ok := cache.Default().Get(key); ok {
			if cached, ok2 := v.([]gin.H); ok2 {
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		var incidents []models.Incident
		q := db.Preload("User.Role").Preload("Likes").Preload("Comments").Order("created_at DESC")
		if cat := strings.TrimSpace(c.Query("category")); cat != "" {
			q = q.Where("category = ?", cat)
		}
		if err := q.Find(&incidents).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}

		out := make([]gin.H, 0, len(incidents))
		for i := range incidents {
			out = append(out, incidentView(&incidents[i]))
		}
		// only the unfiltered listing is worth caching
		if c.Query("category") == "" {
			cache.Default().Set(key, out, time.Duration(config.IncidentCacheTTLSeconds)*time.Second)
		}
		c.JSON(http.StatusOK, out)
	}
}

func CreateIncident(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		var body struct {
			Title       string  `json:"title"`
			Description string  `json:"description"`
			Category    string  `json:"category"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
			NameFile    string  `json:"nameFile"`
		}
		if err := c.ShouldBindJSON(&body); err != nil ||
			strings.TrimSpace(body.Title) == "" || strings.TrimSpace(body.Description) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "title and description are required"})
			return
		}

		in := models.Incident{
			UserID:      ident.UserID,
			Title:       strings.TrimSpace(body.Title),
			Description: strings.TrimSpace(body.Description),
			Category:    strings.TrimSpace(body.Category),
			Latitude:    body.Latitude,
			Longitude:   body.Longitude,
			NameFile:    strings.TrimSpace(body.NameFile),
			Status:      models.IncidentOpen,
		}
		if err := db.Create(&in).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create incident"})
			return
		}
		invalidateIncidentList()
		c.JSON(http.StatusCreated, gin.H{"id": in.ID, "msg": "Incident created"})
	}
}

func GetIncident(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := paramUint(c, "incident_id")
		var in models.Incident
		err := db.Preload("User.Role").Preload("Likes").Preload("Comments.User.Role").First(&in, id).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "incident not found"})
			return
		}

		comments := make([]gin.H, 0, len(in.Comments))
		for i := range in.Comments {
			cm := &in.Comments[i]
			comments = append(comments, gin.H{
				"id":        cm.ID,
				"userId":    cm.UserID,
				"body":      cm.Body,
				"createdAt": cm.CreatedAt,
				"user":      cm.User.PublicView(),
			})
		}
		view := incidentView(&in)
		view["commentList"] = comments
		c.JSON(http.StatusOK, view)
	}
}

// DeleteIncident removes a report; allowed for the reporter and for admins.
func DeleteIncident(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		id := paramUint(c, "incident_id")

		var in models.Incident
		if err := db.First(&in, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "incident not found"})
			return
		}
		if in.UserID != ident.UserID && !ident.Admin {
			c.JSON(http.StatusForbidden, gin.H{"msg": "not your incident"})
			return
		}
		if err := db.Select("Comments", "Likes").Delete(&in).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to delete incident"})
			return
		}
		invalidateIncidentList()
		c.JSON(http.StatusOK, gin.H{"msg": "incident deleted"})
	}
}

// LikeIncident is idempotent: liking twice leaves a single like.
func LikeIncident(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		id := paramUint(c, "incident_id")

		var in models.Incident
		if err := db.First(&in, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "incident not found"})
			return
		}

		like := models.IncidentLike{IncidentID: in.ID, UserID: ident.UserID}
		err := db.Where("incident_id = ? AND user_id = ?", in.ID, ident.UserID).FirstOrCreate(&like).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to like"})
			return
		}
		invalidateIncidentList()
		c.JSON(http.StatusOK, gin.H{"msg": "liked"})
	}
}

func UnlikeIncident(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		id := paramUint(c, "incident_id")

		err := db.Unscoped().
			Where("incident_id = ? AND user_id = ?", id, ident.UserID).
			Delete(&models.IncidentLike{}).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to unlike"})
			return
		}
		invalidateIncidentList()
		c.JSON(http.StatusOK, gin.H{"msg": "unliked"})
	}
}

func ListIncidentComments(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := paramUint(c, "incident_id")
		var in models.Incident
		if err := db.First(&in, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "incident not found"})
			return
		}

		var comments []models.IncidentComment
		err := db.Preload("User.Role").
			Where("incident_id = ?", in.ID).
			Order("created_at ASC").
			Find(&comments).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}
		out := make([]gin.H, 0, len(comments))
		for i := range comments {
			cm := &comments[i]
			out = append(out, gin.H{
				"id":        cm.ID,
				"userId":    cm.UserID,
				"body":      cm.Body,
				"createdAt": cm.CreatedAt,
				"user":      cm.User.PublicView(),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

func CommentIncident(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		id := paramUint(c, "incident_id")

		var body struct {
			Body string `json:"body"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Body) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "comment body is required"})
			return
		}

		var in models.Incident
		if err := db.First(&in, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "incident not found"})
			return
		}

		cm := models.IncidentComment{
			IncidentID: in.ID,
			UserID:     ident.UserID,
			Body:       strings.TrimSpace(body.Body),
		}
		if err := db.Create(&cm).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create comment"})
			return
		}

		if in.UserID != ident.UserID {
			notif := models.Notification{
				UserID:      in.UserID,
				Kind:        models.NotifyIncidentComment,
				ReferenceID: in.ID,
				Body:        cm.Body,
			}
			if err := db.Create(&notif).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to store notification"})
				return
			}
		}
		invalidateIncidentList()
		c.JSON(http.StatusCreated, gin.H{"id": cm.ID, "msg": "Comment created"})
	}
}
