package billing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/requisition"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc     *Service
	backend Backend
}

func NewHandler(svc *Service, backend Backend) *Handler {
	return &Handler{svc: svc, backend: backend}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.GET("/bills", h.ListBills)
	g.GET("/bills/:id", h.GetBill)
	g.GET("/bills/:id/items", h.GetBillItems)
	g.POST("/bills", h.CreateBill)
	g.PATCH("/bills/:id", h.UpdateBill)
	g.DELETE("/bills/:id", h.DeleteBill)
	g.POST("/bills/:id/items", h.CreateBillItem)
	g.PUT("/bill-items/:id", h.UpdateBillItem)
	g.DELETE("/bill-items/:id", h.DeleteBillItem)

	g.GET("/encounters/:id/bill", h.GetEncounterBill)
	g.POST("/encounters/:id/bill/sync", h.SyncClinicalCharges)
	g.POST("/encounters/:id/bill/packages", h.AddPackageToBill)
	g.PUT("/encounters/:id/bill", h.SaveEncounterBill)
}

func (h *Handler) CreateBill(c echo.Context) error {
	var b Bill
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateBill(c.Request().Context(), &b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.GetBill(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListBills(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListBills(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateBill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var upd BillUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.UpdateBill(c.Request().Context(), id, upd)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteBill(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CreateBillItem(c echo.Context) error {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var item BillItem
	if err := c.Bind(&item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item.BillID = billID
	if item.UnitPrice.IsZero() {
		item.UnitPrice = item.SystemCalculatedPrice
	}
	if err := h.svc.CreateBillItem(c.Request().Context(), &item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, item)
}

type updateItemRequest struct {
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (h *Handler) UpdateBillItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.UpdateBillItem(c.Request().Context(), id, req.Quantity, req.UnitPrice)
	if err != nil {
		if err == ErrItemNotFound {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteBillItem(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteBillItem(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetBillItems(c echo.Context) error {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.GetBillItems(c.Request().Context(), billID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// encounterBillResponse is the reconciled view of one encounter's bill.
type encounterBillResponse struct {
	Bill           *Bill                        `json:"bill,omitempty"`
	Items          []*BillItem                  `json:"items"`
	Summary        Summary                      `json:"summary"`
	Draft          bool                         `json:"draft"`
	PendingCharges *requisition.UnbilledSummary `json:"pending_charges,omitempty"`
}

func (h *Handler) GetEncounterBill(c echo.Context) error {
	encID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	s, err := LoadSession(ctx, h.backend, encID, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := encounterBillResponse{
		Items:   s.Items(),
		Summary: s.Summary(),
		Draft:   s.IsDraft(),
	}
	if pending, err := s.PendingCharges(ctx); err == nil {
		resp.PendingCharges = pending
	} else {
		c.Logger().Warnf("unbilled requisitions lookup failed for encounter %s: %v", encID, err)
	}
	if !s.IsDraft() {
		bill, err := h.svc.GetBill(ctx, s.BillID())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		resp.Bill = bill
	}
	return c.JSON(http.StatusOK, resp)
}

type addPackageRequest struct {
	PackageID uuid.UUID `json:"package_id"`
}

// AddPackageToBill expands a catalog package onto the encounter's bill as one
// line per component procedure. The batch stands or falls together.
func (h *Handler) AddPackageToBill(c echo.Context) error {
	encID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req addPackageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PackageID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "package_id is required")
	}

	ctx := c.Request().Context()
	s, err := LoadSession(ctx, h.backend, encID, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if s.IsDraft() {
		return echo.NewHTTPError(http.StatusNotFound, ErrNoBill.Error())
	}
	items, err := s.AddPackage(ctx, req.PackageID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, items)
}

func (h *Handler) SyncClinicalCharges(c echo.Context) error {
	encID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	s, err := LoadSession(ctx, h.backend, encID, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	res, err := s.Sync(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

type saveBillRequest struct {
	PatientName    string          `json:"patient_name"`
	Items          []*BillItem     `json:"items"`
	Discount       decimal.Decimal `json:"discount"`
	ReceivedAmount decimal.Decimal `json:"received_amount"`
	PaymentMode    string          `json:"payment_mode"`
	Notes          *string         `json:"notes,omitempty"`
}

// SaveEncounterBill accepts the full desired bill state and reconciles it
// through a session: a first save creates the bill, later saves rewrite the
// item set and update payment fields last.
func (h *Handler) SaveEncounterBill(c echo.Context) error {
	encID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req saveBillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PaymentMode == "" {
		req.PaymentMode = "cash"
	}

	ctx := c.Request().Context()
	s, err := LoadSession(ctx, h.backend, encID, req.PatientName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if req.PatientName != "" {
		s.SetPatientName(req.PatientName)
	}
	if err := s.SetLocalState(req.Items, req.Discount, req.ReceivedAmount, req.PaymentMode, req.Notes); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.Save(ctx); err != nil {
		if err == ErrNoItems {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := encounterBillResponse{
		Items:   s.Items(),
		Summary: s.Summary(),
		Draft:   false,
	}
	bill, err := h.svc.GetBill(ctx, s.BillID())
	if err == nil {
		resp.Bill = bill
	}
	return c.JSON(http.StatusOK, resp)
}
