package handler

import (
	"context"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/catalog"
	domaincatalog "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogHandler serves items, contacts and billing packages
type CatalogHandler struct {
	BaseHandler
	catalog *catalog.Service
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

// RegisterRoutes mounts the catalog routes on a tenant-scoped group
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	items := rg.Group("/items")
	items.POST("", h.CreateItem)
	items.GET("", h.ListItems)
	items.GET("/:id", h.GetItem)
	items.PATCH("/:id", h.UpdateItem)

	customers := rg.Group("/customers")
	customers.POST("", h.CreateCustomer)
	customers.GET("", h.ListCustomers)
	customers.GET("/:id", h.GetCustomer)
	customers.PUT("/:id", h.UpdateCustomer)

	vendors := rg.Group("/vendors")
	vendors.POST("", h.CreateVendor)
	vendors.GET("", h.ListVendors)
	vendors.GET("/:id", h.GetVendor)
	vendors.PUT("/:id", h.UpdateVendor)

	packages := rg.Group("/packages")
	packages.POST("", h.CreatePackage)
	packages.GET("", h.ListPackages)
	packages.GET("/:id", h.GetPackage)
	packages.PUT("/:id/price", h.RepricePackage)

	rg.GET("/capabilities/:tier", h.Capabilities)
}

func (h *CatalogHandler) CreateItem(c *gin.Context) {
	create(h, c, h.catalog.CreateItem)
}

func (h *CatalogHandler) GetItem(c *gin.Context) {
	get(h, c, h.catalog.GetItem)
}

func (h *CatalogHandler) ListItems(c *gin.Context) {
	list(h, c, h.catalog.ListItems)
}

func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	update(h, c, h.catalog.UpdateItem)
}

func (h *CatalogHandler) CreateCustomer(c *gin.Context) {
	create(h, c, h.catalog.CreateCustomer)
}

func (h *CatalogHandler) GetCustomer(c *gin.Context) {
	get(h, c, h.catalog.GetCustomer)
}

func (h *CatalogHandler) ListCustomers(c *gin.Context) {
	list(h, c, h.catalog.ListCustomers)
}

func (h *CatalogHandler) UpdateCustomer(c *gin.Context) {
	update(h, c, h.catalog.UpdateCustomer)
}

func (h *CatalogHandler) CreateVendor(c *gin.Context) {
	create(h, c, h.catalog.CreateVendor)
}

func (h *CatalogHandler) GetVendor(c *gin.Context) {
	get(h, c, h.catalog.GetVendor)
}

func (h *CatalogHandler) ListVendors(c *gin.Context) {
	list(h, c, h.catalog.ListVendors)
}

func (h *CatalogHandler) UpdateVendor(c *gin.Context) {
	update(h, c, h.catalog.UpdateVendor)
}

func (h *CatalogHandler) CreatePackage(c *gin.Context) {
	create(h, c, h.catalog.CreatePackage)
}

func (h *CatalogHandler) GetPackage(c *gin.Context) {
	get(h, c, h.catalog.GetPackage)
}

func (h *CatalogHandler) ListPackages(c *gin.Context) {
	list(h, c, h.catalog.ListPackages)
}

// RepricePackage changes a package price. Existing subscriptions keep the
// price they were sold at.
func (h *CatalogHandler) RepricePackage(c *gin.Context) {
	update(h, c, h.catalog.RepricePackage)
}

// Capabilities lists what a package tier grants
func (h *CatalogHandler) Capabilities(c *gin.Context) {
	tier := domaincatalog.Tier(c.Param("tier"))
	caps, err := h.catalog.Capabilities(tier)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"tier": tier, "capabilities": caps})
}

// The helpers below share the request plumbing of the four catalog
// resources; each differs only in its request and response types.

func create[Req, Resp any](h *CatalogHandler, c *gin.Context, fn func(context.Context, uuid.UUID, Req) (*Resp, error)) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	var req Req
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := fn(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

func get[Resp any](h *CatalogHandler, c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID) (*Resp, error)) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	resp, err := fn(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func list[Resp any](h *CatalogHandler, c *gin.Context, fn func(context.Context, uuid.UUID, catalog.ListFilter) (shared.Paginated[Resp], error)) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	var f catalog.ListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	p, err := fn(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, p)
}

func update[Req, Resp any](h *CatalogHandler, c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID, Req) (*Resp, error)) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req Req
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := fn(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
