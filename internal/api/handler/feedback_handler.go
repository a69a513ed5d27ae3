package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aistone/edge-backend/internal/core/domain"
	"github.com/aistone/edge-backend/internal/core/ports"
)

type FeedbackHandler struct {
	service ports.FeedbackService
}

func NewFeedbackHandler(service ports.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

type submitFeedbackRequest struct {
	Category string `json:"category" validate:"required,max=50"`
	Content  string `json:"content" validate:"required"`
}

type feedbackItem struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	Email     string    `json:"email,omitempty"`
}

type feedbackResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message,omitempty"`
	Feedback *feedbackItem `json:"feedback,omitempty"`
}

type feedbackListResponse struct {
	Success   bool           `json:"success"`
	Feedbacks []feedbackItem `json:"feedbacks"`
}

func toFeedbackItems(items []*domain.Feedback, withEmail bool) []feedbackItem {
	out := make([]feedbackItem, 0, len(items))
	for _, f := range items {
		item := feedbackItem{
			ID:        f.ID,
			Category:  f.Category,
			Content:   f.Content,
			Status:    f.Status,
			CreatedAt: f.CreatedAt,
		}
		if withEmail {
			item.Email = f.Email
		}
		out = append(out, item)
	}
	return out
}

// Submit handles POST /api/feedback.
//
// @Summary      Submit feedback
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      submitFeedbackRequest  true  "Feedback"
// @Success      201   {object}  feedbackResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /api/feedback [post]
func (h *FeedbackHandler) Submit(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req submitFeedbackRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	f, err := h.service.Submit(c.Request().Context(), ports.FeedbackInput{
		UserID:   user.ID,
		Email:    user.Email,
		Category: req.Category,
		Content:  req.Content,
	})
	if err != nil {
		return err
	}

	item := toFeedbackItems([]*domain.Feedback{f}, false)[0]
	return c.JSON(http.StatusCreated, feedbackResponse{
		Success:  true,
		Message:  "thank you for your feedback",
		Feedback: &item,
	})
}

// List handles GET /api/feedback.
//
// @Summary      List my feedback
// @Tags         feedback
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  feedbackListResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /api/feedback [get]
func (h *FeedbackHandler) List(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	items, err := h.service.List(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, feedbackListResponse{Success: true, Feedbacks: toFeedbackItems(items, false)})
}

// ListAll handles GET /api/admin/feedback.
//
// @Summary      List all feedback
// @Tags         admin
// @Produce      json
// @Param        admin_key  query     string  true  "Admin key"
// @Success      200        {object}  feedbackListResponse
// @Failure      403        {object}  ErrorResponse
// @Router       /api/admin/feedback [get]
func (h *FeedbackHandler) ListAll(c echo.Context) error {
	items, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, feedbackListResponse{Success: true, Feedbacks: toFeedbackItems(items, true)})
}
