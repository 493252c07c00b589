package handler

import (
	"encoding/json"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/microchip-api/internal/model"
	"github.com/deppfellow/microchip-api/internal/server"
	"github.com/deppfellow/microchip-api/internal/service"
	"github.com/deppfellow/microchip-api/internal/validation"
)

type MicrochipHandler struct {
	Handler
	microchipService *service.MicrochipService
}

func NewMicrochipHandler(s *server.Server, microchipService *service.MicrochipService) *MicrochipHandler {
	return &MicrochipHandler{
		Handler:          NewHandler(s),
		microchipService: microchipService,
	}
}

// MicrochipIDRequest addresses a single record. A non-integer id fails
// binding with 400.
type MicrochipIDRequest struct {
	ID int64 `param:"id"`
}

func (r *MicrochipIDRequest) Validate() error {
	return nil
}

type ListMicrochipsRequest struct {
	SortBy string `query:"sortBy"`
}

// Validate accepts any sortBy; the service owns the allowed set so the
// error carries the offending value.
func (r *ListMicrochipsRequest) Validate() error {
	return nil
}

type CountByVoltageRequest struct {
	Volt float64 `query:"volt"`
}

// AfterBind applies the default threshold when volt is absent or empty.
func (r *CountByVoltageRequest) AfterBind(query url.Values) {
	if query.Get("volt") == "" {
		r.Volt = service.DefaultMinVoltage
	}
}

func (r *CountByVoltageRequest) Validate() error {
	return nil
}

// CreateMicrochipsRequest is the JSON array body of a bulk create.
type CreateMicrochipsRequest []model.Microchip

func (r *CreateMicrochipsRequest) Validate() error {
	if *r == nil {
		return validation.CustomValidationErrors{{
			Field:   "body",
			Message: "must be a JSON array of microchips",
		}}
	}
	return nil
}

// ReplaceFrameTypeRequest requires both frame types to be sent, but either
// may be empty: an empty newFrameType clears the frame type.
type ReplaceFrameTypeRequest struct {
	FormerFrameType   string `query:"formerFrameType"`
	NewFrameType      string `query:"newFrameType"`
	PrintOnlyReplaced bool   `query:"printOnlyReplaced"`

	missing []string
}

func (r *ReplaceFrameTypeRequest) AfterBind(query url.Values) {
	for _, name := range []string{"formerFrameType", "newFrameType"} {
		if !query.Has(name) {
			r.missing = append(r.missing, name)
		}
	}
	if query.Get("printOnlyReplaced") == "" {
		r.PrintOnlyReplaced = true
	}
}

func (r *ReplaceFrameTypeRequest) Validate() error {
	if len(r.missing) == 0 {
		return nil
	}

	fieldErrors := make(validation.CustomValidationErrors, 0, len(r.missing))
	for _, name := range r.missing {
		fieldErrors = append(fieldErrors, validation.CustomValidationError{Field: name, Message: "is required"})
	}
	return fieldErrors
}

// VoltageCount is written as a bare JSON number, or 204 when zero.
type VoltageCount int64

func (v VoltageCount) Empty() bool {
	return v == 0
}

// ReplaceFrameTypeResponse is written as the selected JSON array, or 204
// when no record was replaced.
type ReplaceFrameTypeResponse struct {
	Microchips []model.Microchip
	replaced   int
}

func (r ReplaceFrameTypeResponse) Empty() bool {
	return r.replaced == 0
}

func (r ReplaceFrameTypeResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Microchips)
}

func (h *MicrochipHandler) GetByID(c echo.Context, req *MicrochipIDRequest) (model.Microchip, error) {
	return h.microchipService.GetByID(c.Request().Context(), req.ID)
}

func (h *MicrochipHandler) GetAll(c echo.Context, req *ListMicrochipsRequest) ([]model.Microchip, error) {
	return h.microchipService.GetAll(c.Request().Context(), req.SortBy)
}

func (h *MicrochipHandler) CountByVoltage(c echo.Context, req *CountByVoltageRequest) (VoltageCount, error) {
	count, err := h.microchipService.CountByMinVoltage(c.Request().Context(), req.Volt)
	return VoltageCount(count), err
}

func (h *MicrochipHandler) Create(c echo.Context, req *CreateMicrochipsRequest) ([]model.Microchip, error) {
	return h.microchipService.Create(c.Request().Context(), *req)
}

func (h *MicrochipHandler) ReplaceFrameType(c echo.Context, req *ReplaceFrameTypeRequest) (ReplaceFrameTypeResponse, error) {
	result, err := h.microchipService.ReplaceFrameType(
		c.Request().Context(),
		req.FormerFrameType,
		req.NewFrameType,
		req.PrintOnlyReplaced,
	)
	if err != nil {
		return ReplaceFrameTypeResponse{}, err
	}

	return ReplaceFrameTypeResponse{
		Microchips: result.Body(req.PrintOnlyReplaced),
		replaced:   len(result.Replaced),
	}, nil
}

func (h *MicrochipHandler) Delete(c echo.Context, req *MicrochipIDRequest) error {
	return h.microchipService.Delete(c.Request().Context(), req.ID)
}
