package http

import (
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nafee3/nafee3"

	mcpE "github.com/nafee3/nafee3/mcp"
)

func AddRouters(r *gin.Engine, endpoints nafee3.EndpointSet) {
	r.Use(CORSMiddleware())

	// RESTful API routes
	r.GET("/get_profile", GetProfileHandler(endpoints.GetProfile))
	r.POST("/search_profiles", SearchProfilesHandler(endpoints.SearchProfiles))
	r.POST("/add_profile", AddProfileHandler(endpoints.AddProfile))
	r.POST("/update_profile", UpdateProfileHandler(endpoints.UpdateProfile))
	r.DELETE("/delete_profile", DeleteProfileHandler(endpoints.DeleteProfile))
	r.POST("/add_fake_profiles", LoadProfilesHandler(endpoints.LoadProfiles))
}

func AddStreamableRouters(r *gin.Engine, endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint) {
	mcp := r.Group("/mcp")
	{
		mcp.POST("/", MCPStreamableHandler(endpoints))
	}
}
