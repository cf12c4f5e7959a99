package ginserver

import (
	_ "embed"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

//go:embed swagger/openapi.json
var openapiSpec []byte

//go:embed swagger/index.html
var swaggerPage string

// registerDocsRoutes serves the embedded OpenAPI document and a swagger-ui
// page pointed at it. The page is rendered once; only the spec URL varies.
func registerDocsRoutes(router gin.IRoutes) {
	page := []byte(strings.ReplaceAll(swaggerPage, "{{SPEC_URL}}", "/openapi.json"))
	router.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openapiSpec)
	})
	router.GET("/swagger", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})
}
