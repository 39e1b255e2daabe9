// Package api exposes the HTTP surface: item suggestions, catalog
// listings, price recommendations and the live event stream.
package api

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skylens/auction-intel/internal/catalog"
	"github.com/skylens/auction-intel/internal/db"
	"github.com/skylens/auction-intel/internal/recommend"
	"github.com/skylens/auction-intel/internal/textnorm"
)

// ItemSource is the store slice backing item suggestions.
type ItemSource interface {
	KnownItems(ctx context.Context, prefix string, limit int) ([]db.ItemSuggestion, error)
}

// Recommender answers pricing queries.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (recommend.Response, error)
}

type APIHandler struct {
	store ItemSource
	rec   Recommender
	wsHub *Hub
}

func SetupRouter(store ItemSource, rec Recommender, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// Production: ALLOWED_ORIGINS=https://example.net,https://www.example.net
	// Development: ALLOWED_ORIGINS=http://localhost:3000 (or leave empty for *)
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{store: store, rec: rec, wsHub: wsHub}
	limiter := NewRateLimiter(120, 30)

	api := r.Group("/api", limiter.Middleware())
	{
		api.GET("/items", handler.handleItems)
		api.GET("/enchants", handler.handleEnchants)
		api.GET("/dyes", handler.handleDyes)
		api.GET("/skins", handler.handleSkins)
		api.GET("/petskins", handler.handlePetSkins)
		api.GET("/petitems", handler.handlePetItems)
		api.GET("/recommend", handler.handleRecommend)
		api.GET("/health", handler.handleHealth)
		api.GET("/stream", wsHub.Subscribe)
	}

	return r
}

// handleItems suggests known item keys by prefix.
// GET /api/items?q=necron&limit=20
func (h *APIHandler) handleItems(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not connected"})
		return
	}

	prefix := textnorm.NormKey(c.Query("q"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	items, err := h.store.KnownItems(c.Request.Context(), prefix, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item suggestions", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// handleEnchants lists the enchantment names the matcher understands,
// filtered by substring. The detail list with level caps rides along for
// richer clients.
func (h *APIHandler) handleEnchants(c *gin.Context) {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	names := make([]string, 0)
	detail := make([]gin.H, 0)
	for _, name := range catalog.EnchantNames() {
		if q != "" && !strings.Contains(name, q) {
			continue
		}
		names = append(names, name)
		detail = append(detail, gin.H{"name": name, "maxLevel": catalog.MaxLevel(name)})
		if limit > 0 && len(names) >= limit {
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": names, "enchants": detail})
}

// catalogJSON answers a fixed-catalog listing under the canonical "items"
// key; legacyKey duplicates the list for older dashboard builds.
func catalogJSON(c *gin.Context, legacyKey string, list []catalog.Entry) {
	c.JSON(http.StatusOK, gin.H{"items": list, legacyKey: list})
}

func (h *APIHandler) handleDyes(c *gin.Context) {
	catalogJSON(c, "dyes", catalog.Dyes(c.Query("q")))
}

func (h *APIHandler) handleSkins(c *gin.Context) {
	catalogJSON(c, "skins", catalog.Skins(c.Query("q")))
}

func (h *APIHandler) handlePetSkins(c *gin.Context) {
	catalogJSON(c, "petskins", catalog.PetSkins(c.Query("q")))
}

func (h *APIHandler) handlePetItems(c *gin.Context) {
	catalogJSON(c, "petitems", catalog.PetItems(c.Query("q")))
}

// handleRecommend runs a pricing query.
// GET /api/recommend?item_key=necrons+blade&stars10=8&enchants=Sharpness+7,Ultimate+Wise+V&rarity=LEGENDARY
func (h *APIHandler) handleRecommend(c *gin.Context) {
	if h.rec == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recommender not initialized"})
		return
	}

	req, err := parseRecommendQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.rec.Recommend(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Recommendation failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleHealth returns engine liveness for service discovery.
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"engine":      "Auction Intelligence Engine v1.0",
		"dbConnected": h.store != nil,
	})
}
