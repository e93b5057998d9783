package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// ChatHandler manages the per-ticket chat: websocket streaming plus a
// plain history endpoint for transcript recovery.
type ChatHandler struct {
	chat   *service.ChatService
	logger *zap.Logger
}

// NewChatHandler constructs handler.
func NewChatHandler(chatService *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chatService, logger: logger}
}

// History GET /tickets/:id/chat/history.
func (h *ChatHandler) History(c *fiber.Ctx) error {
	participant, err := participantFromContext(c)
	if err != nil {
		return err
	}
	ticketID := c.Params("id")
	entries, err := h.chat.History(c.UserContext(), ticketID, participant)
	if err != nil {
		return err
	}
	messages := make([]dto.ChatMessageResponse, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, dto.NewChatMessageResponse(entry))
	}
	return c.JSON(fiber.Map{"data": dto.ChatHistoryResponse{TicketID: ticketID, Messages: messages}})
}

// Upgrade gates the websocket route: non-upgrade requests are rejected
// and the principal is stashed for the socket handler.
func (h *ChatHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	participant, err := participantFromContext(c)
	if err != nil {
		return err
	}
	c.Locals("chat_participant", participant)
	c.Locals("chat_ticket_id", c.Params("id"))
	return c.Next()
}

// Stream GET /tickets/:id/chat (websocket). Joins the room and reads
// send frames until the client disconnects. All outbound frames go
// through a single writer goroutine: the websocket connection allows at
// most one concurrent writer.
func (h *ChatHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		participant, ok := conn.Locals("chat_participant").(service.Participant)
		if !ok {
			_ = conn.Close()
			return
		}
		ticketID, _ := conn.Locals("chat_ticket_id").(string)

		stream, err := h.chat.Join(ticketID, participant)
		if err != nil {
			_ = conn.WriteJSON(fiber.Map{"error": apperrors.ToDomainError(err).Code})
			_ = conn.Close()
			return
		}

		// errFrames is drained by the same goroutine that pumps stream
		// events, so conn sees exactly one writer.
		errFrames := make(chan fiber.Map, 8)
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for {
				select {
				case event, ok := <-stream:
					if !ok {
						return
					}
					resp := dto.ChatMessageResponse{
						MessageID: event.MessageID,
						SenderID:  event.SenderID,
						Body:      event.Body,
						SentAt:    event.SentAt,
					}
					if err := conn.WriteJSON(resp); err != nil {
						return
					}
				case frame := <-errFrames:
					if err := conn.WriteJSON(frame); err != nil {
						return
					}
				}
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var req dto.ChatSendRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				pushFrame(errFrames, fiber.Map{"error": "VALIDATION_FAILED"})
				continue
			}
			if _, err := h.chat.Send(context.Background(), ticketID, participant, req.Body); err != nil {
				pushFrame(errFrames, fiber.Map{"error": apperrors.ToDomainError(err).Code})
			}
		}

		// Leave closes the stream, which unblocks the writer; only then
		// is it safe to wait for it.
		h.chat.Leave(ticketID, participant)
		<-writerDone
	})
}

// pushFrame queues an error frame without blocking; a full queue means
// the writer is already failing and the frame can be dropped.
func pushFrame(frames chan fiber.Map, frame fiber.Map) {
	select {
	case frames <- frame:
	default:
	}
}

func participantFromContext(c *fiber.Ctx) (service.Participant, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Participant{}, apperrors.NewUnauthorized("authentication required")
	}
	switch principal.SubjectType {
	case domain.SubjectTypeAgent:
		return service.Participant{Type: domain.SubjectTypeAgent, ID: principal.Agent.ID}, nil
	case domain.SubjectTypeCustomer:
		return service.Participant{Type: domain.SubjectTypeCustomer, ID: principal.Customer.ID}, nil
	case domain.SubjectTypeAdmin:
		return service.Participant{Type: domain.SubjectTypeAdmin, ID: principal.Admin.ID}, nil
	}
	return service.Participant{}, apperrors.NewUnauthorized("unknown subject")
}
