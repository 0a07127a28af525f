package server

import (
	"net/http"
	"strconv"
	"strings"

	"stock-dashboard/src/helpers"
	"stock-dashboard/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// normalizeSymbols upper-cases, trims and de-duplicates, keeping request order.
func normalizeSymbols(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// splitSymbols parses a comma separated query value.
func splitSymbols(raw string) []string {
	return normalizeSymbols(strings.Split(raw, ","))
}

// -----------------------------------------------------------------------------

// queryInt reads an optional positive integer query parameter. Missing means 0.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, helpers.NewValidationError(name + " must be a positive integer")
	}
	return v, nil
}

// -----------------------------------------------------------------------------

// errorStatus maps the error taxonomy to an HTTP status.
func errorStatus(err error) int {
	switch {
	case helpers.IsInvalidPeriod(err), helpers.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (g *DeliveryGateway) writeError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		g.Logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, models.MErrorResponse{Error: err.Error()})
}

// -----------------------------------------------------------------------------

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
