package patient

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pm/patient-platform/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the patient routes on the given group, typically /api/v1.
func (h *Handler) Register(g *echo.Group) {
	p := g.Group("/patients")
	p.POST("", h.create)
	p.GET("", h.list)
	p.GET("/:id", h.get)
	p.PUT("/:id", h.update)
	p.DELETE("/:id", h.delete)
	p.POST("/:id/charges", h.addCharge)
	p.GET("/:id/bills", h.bills)
	p.GET("/:id/bills/:date", h.billOnDate)
}

type patientRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth"`
}

type patientResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Address        string    `json:"address"`
	DateOfBirth    string    `json:"date_of_birth"`
	RegisteredDate string    `json:"registered_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toResponse(p *Patient) patientResponse {
	return patientResponse{
		ID:             p.ID.String(),
		Name:           p.Name,
		Email:          p.Email,
		Address:        p.Address,
		DateOfBirth:    p.DateOfBirth.Format(DateLayout),
		RegisteredDate: p.RegisteredDate.Format(DateLayout),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (r *patientRequest) toModel() (*Patient, error) {
	p := &Patient{Name: r.Name, Email: r.Email, Address: r.Address}
	if r.DateOfBirth != "" {
		dob, err := time.Parse(DateLayout, r.DateOfBirth)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "date_of_birth must be YYYY-MM-DD")
		}
		p.DateOfBirth = dob
	}
	return p, nil
}

func (h *Handler) create(c echo.Context) error {
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := req.toModel()
	if err != nil {
		return err
	}
	created, err := h.svc.Create(c.Request().Context(), p)
	if err != nil {
		return h.toHTTP(err)
	}
	return c.JSON(http.StatusCreated, toResponse(created))
}

func (h *Handler) get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.toHTTP(err)
	}
	return c.JSON(http.StatusOK, toResponse(p))
}

func (h *Handler) list(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("name"), pg.Limit, pg.Offset)
	if err != nil {
		return h.toHTTP(err)
	}
	resp := make([]patientResponse, 0, len(items))
	for _, p := range items {
		resp = append(resp, toResponse(p))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(resp, total, pg.Limit, pg.Offset))
}

func (h *Handler) update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	upd, err := req.toModel()
	if err != nil {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), id, upd)
	if err != nil {
		return h.toHTTP(err)
	}
	return c.JSON(http.StatusOK, toResponse(p))
}

func (h *Handler) delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return h.toHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type chargeRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	ChargeDate  string  `json:"charge_date"`
}

func (h *Handler) addCharge(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req chargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ChargeDate == "" {
		req.ChargeDate = time.Now().UTC().Format(DateLayout)
	}
	bill, err := h.svc.AddCharge(c.Request().Context(), id, req.Amount, req.Description, req.ChargeDate)
	if err != nil {
		return h.toHTTP(err)
	}
	return c.JSON(http.StatusCreated, bill)
}

func (h *Handler) bills(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	bills, err := h.svc.Bills(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return h.toHTTP(err)
	}
	return c.JSON(http.StatusOK, bills)
}

func (h *Handler) billOnDate(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	bill, err := h.svc.BillOnDate(c.Request().Context(), id, c.Param("date"))
	if err != nil {
		return h.toHTTP(err)
	}
	return c.JSON(http.StatusOK, bill)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id, nil
}

// toHTTP translates domain and billing gateway errors into HTTP responses.
func (h *Handler) toHTTP(err error) error {
	var billErr *BillingError
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicateEmail):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &billErr):
		return echo.NewHTTPError(http.StatusBadGateway, "billing service unavailable")
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.InvalidArgument:
			return echo.NewHTTPError(http.StatusBadRequest, st.Message())
		case codes.NotFound:
			return echo.NewHTTPError(http.StatusNotFound, st.Message())
		case codes.AlreadyExists:
			return echo.NewHTTPError(http.StatusConflict, st.Message())
		case codes.Unavailable, codes.DeadlineExceeded:
			return echo.NewHTTPError(http.StatusBadGateway, "billing service unavailable")
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
