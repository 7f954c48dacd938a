package web

import (
	"net/http"

	"catalog/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// Server renders the catalog and details browser views over HTTP
type Server struct {
	engine     *gin.Engine
	catalog    *service.CatalogService
	browser    *service.BrowserService
	pageWindow int
}

func NewServer(catalog *service.CatalogService, browser *service.BrowserService, pageWindow int) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(RequestID(), Logger(), Recovery())
	engine.SetHTMLTemplate(templates)

	s := &Server{
		engine:     engine,
		catalog:    catalog,
		browser:    browser,
		pageWindow: pageWindow,
	}
	s.routes()

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/", s.openCatalog)
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	catalog := s.engine.Group("/catalog/:id")
	catalog.GET("", s.showCatalog)
	catalog.POST("/page", s.changeCatalogPage)
	catalog.POST("/variants/:variantID", s.selectVariant)

	s.engine.GET("/details", s.openBrowser)
	details := s.engine.Group("/details/:id")
	details.GET("", s.showBrowser)
	details.POST("/prev", s.navigateBrowser(service.DirectionPrev))
	details.POST("/next", s.navigateBrowser(service.DirectionNext))
	details.POST("/page", s.browserGoTo)

	s.engine.NoRoute(func(c *gin.Context) {
		s.renderMessage(c, http.StatusNotFound, "Page not found", "There is nothing at this address.")
	})
}
