package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bizdata/internal/listquery"
	"github.com/tbourn/go-bizdata/internal/utils"
)

// QueryRequest is the body of PUT /lists/:name/query.
type QueryRequest struct {
	Keyword string              `json:"keyword"`
	Filters map[string][]string `json:"filters"`
}

// ListsResponse is the body of GET /lists.
type ListsResponse struct {
	Lists []listquery.View `json:"lists"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// clampPagination reads page and page_size. paged is false when neither is
// present, in which case the whole list is returned.
func clampPagination(c *gin.Context) (page, pageSize int, paged bool) {
	rawPage, rawSize := c.Query("page"), c.Query("page_size")
	if rawPage == "" && rawSize == "" {
		return 0, 0, false
	}
	page, pageSize = utils.ClampPage(rawPage, rawSize, defaultPageSize, maxPageSize)
	return page, pageSize, true
}

// ListLists handles GET /lists.
func (h *Handlers) ListLists(c *gin.Context) {
	ok(c, http.StatusOK, ListsResponse{Lists: h.lists.Views()})
}

// GetList handles GET /lists/:name[?page=&page_size=].
func (h *Handlers) GetList(c *gin.Context) {
	l, err := h.lists.Get(c.Param("name"))
	if err != nil {
		failErr(c, err)
		return
	}
	if page, size, paged := clampPagination(c); paged {
		ok(c, http.StatusOK, l.ViewPage(page, size))
		return
	}
	ok(c, http.StatusOK, l.View())
}

// SetQuery handles PUT /lists/:name/query. The fetch is debounced by the
// controller; the response is the state right after scheduling.
func (h *Handlers) SetQuery(c *gin.Context) {
	l, err := h.lists.Get(c.Param("name"))
	if err != nil {
		failErr(c, err)
		return
	}
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid query body")
		return
	}
	filters := listquery.Filters{}
	for k, vs := range req.Filters {
		filters[strings.ToLower(strings.TrimSpace(k))] = vs
	}
	l.SetQuery(listquery.Query{Keyword: req.Keyword, Filters: filters})
	ok(c, http.StatusAccepted, l.View())
}

// Refresh handles POST /lists/:name/refresh.
func (h *Handlers) Refresh(c *gin.Context) {
	l, err := h.lists.Get(c.Param("name"))
	if err != nil {
		failErr(c, err)
		return
	}
	l.Refresh()
	ok(c, http.StatusAccepted, l.View())
}
