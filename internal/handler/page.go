package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/drdata1010/plan-b-backend-sub001/internal/repository"
)

// pageFrom reads offset/limit query parameters.
func pageFrom(c *gin.Context) repository.Page {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	return repository.Page{Offset: offset, Limit: limit}.Normalize()
}
