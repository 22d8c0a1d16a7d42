package handler

import (
	"event-token-ledger/internal/adapter/http/dto"
	"event-token-ledger/internal/adapter/http/middleware"
	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"
	"event-token-ledger/pkg/apperror"
	"event-token-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// SpendHandler exposes the token-spending use cases. The authenticated actor
// travels in the request context; the services resolve it themselves.
type SpendHandler struct {
	voteSvc   ports.VoteService
	giftSvc   ports.GiftService
	ticketSvc ports.TicketService
	formSvc   ports.FormService
}

// NewSpendHandler creates a new SpendHandler.
func NewSpendHandler(voteSvc ports.VoteService, giftSvc ports.GiftService, ticketSvc ports.TicketService, formSvc ports.FormService) *SpendHandler {
	return &SpendHandler{
		voteSvc:   voteSvc,
		giftSvc:   giftSvc,
		ticketSvc: ticketSvc,
		formSvc:   formSvc,
	}
}

// Vote handles POST /api/v1/events/:eventID/candidates/:candidateID/votes.
func (h *SpendHandler) Vote(c *gin.Context) {
	var req dto.VoteRequest
	if !bind(c, &req) {
		return
	}

	out, err := h.voteSvc.Vote(c.Request.Context(), ports.VoteRequest{
		EventID:     c.Param("eventID"),
		CandidateID: c.Param("candidateID"),
		VoteCount:   req.VoteCount,
		RequestID:   req.RequestID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, out.Transaction.ID)
	response.Settled(c, out, out.Replayed)
}

// SendGift handles POST /api/v1/events/:eventID/candidates/:candidateID/gifts.
func (h *SpendHandler) SendGift(c *gin.Context) {
	var req dto.GiftRequest
	if !bind(c, &req) {
		return
	}

	out, err := h.giftSvc.SendGift(c.Request.Context(), ports.GiftRequest{
		EventID:     c.Param("eventID"),
		CandidateID: c.Param("candidateID"),
		GiftName:    req.GiftName,
		RequestID:   req.RequestID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, out.Transaction.ID)
	response.Settled(c, out, out.Replayed)
}

// PurchaseTicket handles POST /api/v1/tickets/:ticketID/purchases.
func (h *SpendHandler) PurchaseTicket(c *gin.Context) {
	var req dto.PurchaseRequest
	if !bind(c, &req) {
		return
	}

	out, err := h.ticketSvc.Purchase(c.Request.Context(), ports.TicketPurchaseRequest{
		TicketID:  c.Param("ticketID"),
		RequestID: req.RequestID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if out.Transaction != nil {
		c.Set(middleware.CtxResourceID, out.Transaction.ID)
	}
	response.Settled(c, out, out.Replayed)
}

// SubmitForm handles POST /api/v1/forms/:formID/submissions.
func (h *SpendHandler) SubmitForm(c *gin.Context) {
	var req dto.FormSubmissionRequest
	if !bind(c, &req) {
		return
	}

	out, err := h.formSvc.Submit(c.Request.Context(), ports.FormSubmissionRequest{
		FormID:    c.Param("formID"),
		Answers:   req.Answers,
		RequestID: req.RequestID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if out.Transaction != nil {
		c.Set(middleware.CtxResourceID, out.Transaction.ID)
	}
	response.Settled(c, out, out.Replayed)
}

// GiftCatalog handles GET /api/v1/gifts.
func GiftCatalog(c *gin.Context) {
	response.OK(c, dto.GiftCatalogResponse{Gifts: domain.GiftCatalog()})
}

// bind decodes, validates and sanitizes a JSON body, writing the error
// response itself on failure.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return false
	}
	dto.SanitizeStruct(req)
	return true
}

