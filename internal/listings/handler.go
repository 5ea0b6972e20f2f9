package listings

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/propriedades", h.list)
	rg.GET("/propriedades/:codigo", h.getByCodigo)
	rg.GET("/mapa", h.mapListings)
	rg.GET("/estados", h.estados)
	rg.GET("/cidades/:estado", h.cidades)
	rg.GET("/bairros/:cidade", h.bairros)
	rg.GET("/tipos-imovel", h.tipos)
}

func queryFromContext(c *gin.Context) ListQuery {
	return ListQuery{
		Estado:      c.Query("estado"),
		Cidade:      c.Query("cidade"),
		Bairro:      c.Query("bairro"),
		TipoImovel:  c.Query("tipo_imovel"),
		ValorMin:    parseFloat(c.Query("valor_min")),
		ValorMax:    parseFloat(c.Query("valor_max")),
		DescontoMin: parseFloat(c.Query("desconto_min")),
		Page:        parseInt(c.Query("page"), 1),
		PageSize:    parseInt(c.Query("page_size"), 100),
	}
}

func (h *Handler) list(c *gin.Context) {
	q := queryFromContext(c)

	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   total,
		"results": items,
	})
}

func (h *Handler) getByCodigo(c *gin.Context) {
	codigo := strings.TrimSpace(c.Param("codigo"))
	l, err := h.Repo.GetByCodigo(c.Request.Context(), codigo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if l == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *Handler) mapListings(c *gin.Context) {
	q := queryFromContext(c)
	items, err := h.Repo.MapListings(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "map query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(items),
		"results": items,
	})
}

func (h *Handler) estados(c *gin.Context) {
	out, err := h.Repo.Estados(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "estados failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"estados": out})
}

func (h *Handler) cidades(c *gin.Context) {
	estado := strings.TrimSpace(c.Param("estado"))
	out, err := h.Repo.Cidades(c.Request.Context(), estado)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cidades failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cidades": out})
}

func (h *Handler) bairros(c *gin.Context) {
	cidade := strings.TrimSpace(c.Param("cidade"))
	out, err := h.Repo.Bairros(c.Request.Context(), cidade)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "bairros failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bairros": out})
}

func (h *Handler) tipos(c *gin.Context) {
	out, err := h.Repo.Tipos(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tipos failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tipos_imovel": out})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseFloat(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
