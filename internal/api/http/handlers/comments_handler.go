package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/andomingos87/garageinn-helpdesk/internal/api/dto"
	"github.com/andomingos87/garageinn-helpdesk/internal/auth"
	"github.com/andomingos87/garageinn-helpdesk/internal/domain"
	"github.com/andomingos87/garageinn-helpdesk/internal/service"
	apperrors "github.com/andomingos87/garageinn-helpdesk/pkg/util/errorutil"
)

// CommentsHandler manages ticket comment endpoints.
type CommentsHandler struct {
	comments *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(comments *service.CommentService) *CommentsHandler {
	return &CommentsHandler{comments: comments}
}

// AddComment POST /tickets/:id/comments.
func (h *CommentsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.comments.AddComment(c.UserContext(), principal.Actor(), c.Params("id"), req.Content, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": toCommentResponse(*comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	comments, err := h.comments.ListComments(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, toCommentResponse(comment))
	}
	return c.JSON(fiber.Map{"data": items})
}

func toCommentResponse(comment domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		TicketID:   comment.TicketID,
		Content:    comment.Content,
		IsInternal: comment.IsInternal,
		CreatedBy:  comment.CreatedBy,
		CreatedAt:  comment.CreatedAt,
	}
}
