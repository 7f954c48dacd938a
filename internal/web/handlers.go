package web

import (
	"errors"
	"net/http"
	"net/url"

	"catalog/storefront/internal/service"
	"catalog/storefront/internal/state"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type pageForm struct {
	Page int `form:"page"`
}

func (s *Server) openCatalog(c *gin.Context) {
	view, err := s.catalog.Open(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/catalog/"+view.ID)
}

func (s *Server) showCatalog(c *gin.Context) {
	view, err := s.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "catalog.html", s.newCatalogPage(view))
}

func (s *Server) changeCatalogPage(c *gin.Context) {
	var form pageForm
	if err := c.ShouldBind(&form); err != nil {
		s.badRequest(c, err)
		return
	}

	view, err := s.catalog.ChangePage(c.Request.Context(), c.Param("id"), form.Page)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/catalog/"+view.ID)
}

func (s *Server) selectVariant(c *gin.Context) {
	variantID := c.Param("variantID")

	view, err := s.catalog.SelectVariant(c.Request.Context(), c.Param("id"), variantID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/catalog/"+view.ID+"#variant-"+url.PathEscape(variantID))
}

func (s *Server) openBrowser(c *gin.Context) {
	view, err := s.browser.Open(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/details/"+view.ID)
}

func (s *Server) showBrowser(c *gin.Context) {
	view, err := s.browser.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "details.html", s.newBrowserPage(view))
}

func (s *Server) navigateBrowser(direction service.Direction) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := s.browser.Navigate(c.Request.Context(), c.Param("id"), direction)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Redirect(http.StatusSeeOther, "/details/"+view.ID)
	}
}

func (s *Server) browserGoTo(c *gin.Context) {
	var form pageForm
	if err := c.ShouldBind(&form); err != nil {
		s.badRequest(c, err)
		return
	}

	view, err := s.browser.GoTo(c.Request.Context(), c.Param("id"), form.Page)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/details/"+view.ID)
}

func (s *Server) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	s.renderMessage(c, http.StatusBadRequest, "Bad request", "The page number is not valid.")
}

// fail maps a service error to an error page
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, state.ErrViewNotFound):
		s.renderMessage(c, http.StatusNotFound, "View not found", "This view has expired. Start again from the catalog.")
	case errors.Is(err, service.ErrInvalidVariant):
		s.renderMessage(c, http.StatusBadRequest, "Bad request", "The variant is not valid.")
	default:
		log.Errorf("❌ Request %s failed: %v", GetRequestID(c), err)
		s.renderMessage(c, http.StatusInternalServerError, "Something went wrong", "An error occurred")
	}
}

func (s *Server) renderMessage(c *gin.Context, status int, title, message string) {
	c.HTML(status, "message.html", messagePage{
		Title:     title,
		Message:   message,
		RequestID: GetRequestID(c),
	})
}
