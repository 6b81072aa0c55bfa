package controllers

import (
	"net/http"
	"strings"

	"canaccesible/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func ListBlogs(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var blogs []models.Blog
		if err := db.Preload("User.Role").Order("created_at DESC").Find(&blogs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}
		out := make([]gin.H, 0, len(blogs))
		for i := range blogs {
			b := &blogs[i]
			out = append(out, gin.H{
				"id":        b.ID,
				"title":     b.Title,
				"nameFile":  b.NameFile,
				"createdAt": b.CreatedAt,
				"user":      b.User.PublicView(),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

func GetBlog(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := paramUint(c, "blog_id")
		var b models.Blog
		if err := db.Preload("User.Role").First(&b, id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "blog not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":        b.ID,
			"title":     b.Title,
			"body":      b.Body,
			"nameFile":  b.NameFile,
			"createdAt": b.CreatedAt,
			"user":      b.User.PublicView(),
		})
	}
}

// CreateBlog is registered behind AdminOnly.
func CreateBlog(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		var body struct {
			Title    string `json:"title"`
			Body     string `json:"body"`
			NameFile string `json:"nameFile"`
		}
		if err := c.ShouldBindJSON(&body); err != nil ||
			strings.TrimSpace(body.Title) == "" || strings.TrimSpace(body.Body) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "title and body are required"})
			return
		}
		b := models.Blog{
			UserID:   ident.UserID,
			Title:    strings.TrimSpace(body.Title),
			Body:     body.Body,
			NameFile: strings.TrimSpace(body.NameFile),
		}
		if err := db.Create(&b).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create blog"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": b.ID, "msg": "Blog created"})
	}
}
