package blogs

import (
	"canaccesible/controllers"
	"canaccesible/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterPublic: articles are readable without an account.
func RegisterPublic(r *gin.Engine, db *gorm.DB) {
	r.GET("/api/blogs", controllers.ListBlogs(db))
	r.GET("/api/blogs/:blog_id", controllers.GetBlog(db))
}

// RegisterProtected: publishing is admin-only.
func RegisterProtected(g *gin.RouterGroup, db *gorm.DB) {
	g.POST("/blogs", middleware.AdminOnly(), controllers.CreateBlog(db))
}
