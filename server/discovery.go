package server

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/servicekit/errors"
	"github.com/kbukum/servicekit/registry"
)

// RegisterDiscoveryEndpoints exposes read-only lookups through reg:
//
//	GET /discovery/agent
//	GET /discovery/datacenters
//	GET /discovery/services/:service?tag=&dc=&near=
//	GET /discovery/services/:service/url?tag=
func (s *Server) RegisterDiscoveryEndpoints(reg *registry.Registry) {
	g := s.engine.Group("/discovery")
	g.GET("/agent", agentHandler(reg))
	g.GET("/datacenters", datacentersHandler(reg))
	g.GET("/services/:service", nodesHandler(reg))
	g.GET("/services/:service/url", baseURLHandler(reg))
}

func agentHandler(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := reg.Agent()
		if !ok {
			RespondWithError(c, apperrors.ServiceUnavailable("consul"))
			return
		}
		RespondOK(c, gin.H{
			"datacenter": agent.Datacenter,
			"node_id":    agent.NodeID,
			"node_name":  agent.NodeName,
		})
	}
}

func datacentersHandler(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		dcs, err := reg.ListDatacenters(c.Request.Context())
		if err != nil {
			RespondWithError(c, err)
			return
		}
		RespondOK(c, dcs)
	}
}

type nodeView struct {
	NodeID     string   `json:"node_id"`
	Node       string   `json:"node"`
	Datacenter string   `json:"datacenter"`
	ServiceID  string   `json:"service_id"`
	Address    string   `json:"address"`
	Port       int      `json:"port"`
	Tags       []string `json:"tags"`
}

func nodesHandler(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		nodes, err := reg.FindNodesForService(c.Request.Context(), registry.NodeQuery{
			Service:    c.Param("service"),
			Tag:        c.Query("tag"),
			Datacenter: c.Query("dc"),
			Near:       c.Query("near"),
		})
		if err != nil {
			RespondWithError(c, err)
			return
		}
		views := make([]nodeView, 0, len(nodes))
		for _, n := range nodes {
			views = append(views, nodeView{
				NodeID:     n.Node.ID,
				Node:       n.Node.Name,
				Datacenter: n.Node.Datacenter,
				ServiceID:  n.Service.ID,
				Address:    n.Address(),
				Port:       n.Service.Port,
				Tags:       n.Service.Tags,
			})
		}
		RespondOK(c, views)
	}
}

func baseURLHandler(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		service := c.Param("service")
		u, err := reg.ResolveBaseURL(c.Request.Context(), service, c.Query("tag"))
		switch {
		case stderrors.Is(err, registry.ErrNoHealthyNodes):
			RespondWithError(c, apperrors.NotFound("healthy instance", service).WithCause(err))
		case stderrors.Is(err, registry.ErrInvalidBaseURL):
			RespondWithError(c, apperrors.ExternalServiceError("consul", err))
		case err != nil:
			RespondWithError(c, err)
		default:
			c.JSON(http.StatusOK, DataResponse{Data: gin.H{"url": u.String()}})
		}
	}
}
