package uploads

import "github.com/gin-gonic/gin"

// Register serves stored avatars and incident photos. Upload itself is
// handled out of band; only the file names live in the database.
func Register(r *gin.Engine) {
	r.Static("/uploads", "./uploads")
}
