package handler

import (
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler serves invoices and the payments recorded against them
type InvoiceHandler struct {
	BaseHandler
	ledger *ledger.Service
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(svc *ledger.Service) *InvoiceHandler {
	return &InvoiceHandler{ledger: svc}
}

// RegisterRoutes mounts the invoice routes on a tenant-scoped group
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inv := rg.Group("/invoices")
	inv.POST("", h.Create)
	inv.GET("", h.List)
	inv.GET("/:id", h.Get)
	inv.DELETE("/:id", h.Delete)
	inv.POST("/:id/items", h.AddItem)
	inv.DELETE("/:id/items/:line_id", h.RemoveItem)
	inv.POST("/:id/send", h.Send)
	inv.POST("/:id/cancel", h.Cancel)
	inv.POST("/:id/payments", h.RecordPayment)

	pay := rg.Group("/payments")
	pay.POST("/:id/confirm", h.ConfirmPayment)
	pay.POST("/:id/void", h.VoidPayment)
}

// Create drafts an invoice from catalog items
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	var req ledger.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.ledger.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// List returns a page of invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	var f ledger.ListInvoicesFilter
	if !h.BindQuery(c, &f) {
		return
	}
	p, err := h.ledger.List(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, p)
}

// Get returns one invoice with its lines and payments
func (h *InvoiceHandler) Get(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.ledger.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Delete removes a draft invoice that has no payments
func (h *InvoiceHandler) Delete(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddItem appends a line to a draft invoice
func (h *InvoiceHandler) AddItem(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req ledger.LineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.ledger.AddItem(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// RemoveItem drops a line from a draft invoice
func (h *InvoiceHandler) RemoveItem(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.PathID(c, "line_id")
	if !ok {
		return
	}
	inv, err := h.ledger.RemoveItem(c.Request.Context(), tenantID, id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Send issues a draft invoice
func (h *InvoiceHandler) Send(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.ledger.Send(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Cancel cancels an unpaid invoice
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req ledger.ReasonRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.ledger.Cancel(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// RecordPayment applies a payment. A replayed reference answers 200 with
// duplicate set instead of 201.
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req ledger.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.ledger.RecordPayment(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if res.Duplicate {
		h.Success(c, res)
		return
	}
	h.Created(c, res)
}

// ConfirmPayment settles a pending payment with a gateway outcome
func (h *InvoiceHandler) ConfirmPayment(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req ledger.ConfirmPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.ledger.ConfirmPayment(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// VoidPayment refunds a completed payment
func (h *InvoiceHandler) VoidPayment(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req ledger.ReasonRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	res, err := h.ledger.VoidPayment(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
