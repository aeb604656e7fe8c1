package admin

import (
	"net/http"

	"github.com/animalet/cascade-go/pkg/properties"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type environmentResponse struct {
	Environment        string   `json:"environment"`
	SearchEnvironments []string `json:"search_environments"`
	Hostname           string   `json:"hostname"`
	BuildNumber        string   `json:"build_number,omitempty"`
	DEV                bool     `json:"dev"`
	TEST               bool     `json:"test"`
	PROD               bool     `json:"prod"`
}

type propertyResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type overrideRequest struct {
	Value *string `json:"value" binding:"required"`
}

type overrideResponse struct {
	Key     string `json:"key"`
	Applied bool   `json:"applied"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) environment(c *gin.Context) {
	c.JSON(http.StatusOK, environmentResponse{
		Environment:        s.manager.Environment(),
		SearchEnvironments: s.manager.SearchEnvironments(),
		Hostname:           s.manager.Hostname(),
		BuildNumber:        s.manager.BuildNumber(),
		DEV:                s.manager.IsDEV(),
		TEST:               s.manager.IsTEST(),
		PROD:               s.manager.IsPROD(),
	})
}

func (s *Server) listProperties(c *gin.Context) {
	env := c.DefaultQuery("environment", s.manager.Environment())
	values, err := s.manager.AllProperties(env)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, properties.Masked(values))
}

func (s *Server) getProperty(c *gin.Context) {
	key := c.Param("key")
	value, found, err := s.manager.Lookup("", key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Unable to resolve property")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "unable to resolve property"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, errorResponse{Error: "property not found"})
		return
	}
	c.JSON(http.StatusOK, propertyResponse{Key: key, Value: properties.Display(key, value)})
}

func (s *Server) putOverride(c *gin.Context) {
	key := c.Param("key")
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	applied, err := s.manager.Override(key, *req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, overrideResponse{Key: key, Applied: applied})
}
