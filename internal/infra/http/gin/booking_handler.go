package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"seabook/internal/app/dto"
	"seabook/internal/app/services/reservation"
	domainbooking "seabook/internal/domain/booking"
)

type BookingHandler struct {
	Service *reservation.Service
}

type holdRequest struct {
	quoteRequest
	SailingID   string `json:"sailing_id"`
	HoldMinutes int    `json:"hold_minutes"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Hold(c *gin.Context) {
	var req holdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SailingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sailing_id is required"})
		return
	}
	parsed, err := parseQuoteRequest(req.quoteRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	b, err := h.Service.CreateHold(c.Request.Context(), reservation.HoldParams{
		TenantID:    tenantID(c),
		SailingID:   req.SailingID,
		Request:     parsed,
		HoldMinutes: req.HoldMinutes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewBookingResponse(b))
}

func (h BookingHandler) Confirm(c *gin.Context) {
	b, err := h.Service.Confirm(c.Request.Context(), tenantID(c), domainbooking.BookingID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookingResponse(b))
}

func (h BookingHandler) Cancel(c *gin.Context) {
	var req cancelRequest
	_ = c.ShouldBindJSON(&req)
	b, err := h.Service.Cancel(c.Request.Context(), tenantID(c), domainbooking.BookingID(c.Param("id")), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookingResponse(b))
}

func (h BookingHandler) Get(c *gin.Context) {
	b, err := h.Service.Get(c.Request.Context(), tenantID(c), domainbooking.BookingID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookingResponse(b))
}

var _ BookingHTTP = BookingHandler{}
