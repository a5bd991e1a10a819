package handlers

import (
	"net/http"
	"sort"
	"strings"

	"wastereport/internal/observability"

	"github.com/gin-gonic/gin"
)

// Access levels reported for each route
const (
	AccessPublic    = "public"
	AccessSession   = "session"
	AccessAuthority = "authority"
)

// RouteInfo represents information about a single route
type RouteInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Access      string `json:"access"`
	HandlerName string `json:"handler_name"`
}

// RouteListingHandler serves the list of registered routes at the API root
type RouteListingHandler struct {
	serviceName string
	exact       map[string]string
	prefixes    map[string]string
	routes      []RouteInfo
}

// NewRouteListingHandler creates a new route listing handler
func NewRouteListingHandler(serviceName string) *RouteListingHandler {
	return &RouteListingHandler{
		serviceName: serviceName,
		exact:       map[string]string{},
		prefixes:    map[string]string{},
		routes:      []RouteInfo{},
	}
}

// SetAccess records the access level of a single route
func (h *RouteListingHandler) SetAccess(method, path, access string) {
	h.exact[method+" "+path] = access
}

// SetPrefixAccess records the access level of every route under prefix
func (h *RouteListingHandler) SetPrefixAccess(prefix, access string) {
	h.prefixes[prefix] = access
}

// accessFor resolves an exact entry first, then the longest matching prefix
func (h *RouteListingHandler) accessFor(method, path string) string {
	if access, ok := h.exact[method+" "+path]; ok {
		return access
	}
	access, longest := AccessPublic, 0
	for prefix, level := range h.prefixes {
		if strings.HasPrefix(path, prefix) && len(prefix) > longest {
			access, longest = level, len(prefix)
		}
	}
	return access
}

// CollectRoutes extracts all routes from a Gin engine, sorted by path then method
func (h *RouteListingHandler) CollectRoutes(engine *gin.Engine) {
	h.routes = []RouteInfo{}

	for _, route := range engine.Routes() {
		if strings.HasPrefix(route.Path, "/debug/") {
			continue
		}
		h.routes = append(h.routes, RouteInfo{
			Method:      route.Method,
			Path:        route.Path,
			Access:      h.accessFor(route.Method, route.Path),
			HandlerName: route.Handler,
		})
	}

	sort.Slice(h.routes, func(i, j int) bool {
		if h.routes[i].Path == h.routes[j].Path {
			return h.routes[i].Method < h.routes[j].Method
		}
		return h.routes[i].Path < h.routes[j].Path
	})
}

// Routes returns the collected routes
func (h *RouteListingHandler) Routes() []RouteInfo {
	return h.routes
}

// GetRouteListing returns the service name and its routes, optionally filtered by ?access=
func (h *RouteListingHandler) GetRouteListing(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_route_listing")
	defer observability.FinishSpan(span, nil)

	routes := h.routes
	if access := c.Query("access"); access != "" {
		routes = make([]RouteInfo, 0, len(h.routes))
		for _, r := range h.routes {
			if r.Access == access {
				routes = append(routes, r)
			}
		}
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.JSON(http.StatusOK, gin.H{
		"service": h.serviceName,
		"count":   len(routes),
		"routes":  routes,
	})
}
