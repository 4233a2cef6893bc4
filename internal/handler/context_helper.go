package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aquaflow/aquaflow-api/internal/middleware"
	"github.com/aquaflow/aquaflow-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextActorKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) models.ActorRef {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.ActorRef{}
	}
	return claims.Actor()
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || size < 1 {
		size = 20
	}
	return page, size
}
