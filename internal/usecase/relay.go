package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chat-relay/internal/domain"
)

const (
	Channel      = "chataurelio"
	EventName    = "chatbidireccion"
	AssistantTag = "Aurelio AI"

	defaultModel = "gpt-3.5-turbo"
)

type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload domain.Event) error
}

type LLMClient interface {
	Complete(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// RelayService forwards chat messages to the pub/sub channel and answers
// client messages with a completion. It holds no per-request state.
type RelayService struct {
	pub   Publisher
	llm   LLMClient
	model string
}

// RelayInput is the decoded request body before classification.
type RelayInput struct {
	FromControl     bool
	Sender          string
	ClientID        string
	Message         string
	OriginalMessage string
	MessageForGPT   string
}

func NewRelayService(pub Publisher, llm LLMClient, model string) (*RelayService, error) {
	if pub == nil {
		return nil, errors.New("usecase: publisher must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	return &RelayService{pub: pub, llm: llm, model: model}, nil
}

// Classify turns the raw input into an OperatorMessage or a ClientMessage.
// Operator messages are not validated; client messages need a sender, the
// original text and the model payload.
func Classify(in RelayInput) (domain.Message, error) {
	if in.FromControl {
		return domain.OperatorMessage{
			Sender:   in.Sender,
			Text:     in.Message,
			ClientID: in.ClientID,
		}, nil
	}
	if in.Sender == "" || in.OriginalMessage == "" || in.MessageForGPT == "" {
		return nil, newError(ErrorInvalidInput, "missing_required_fields", nil)
	}
	return domain.ClientMessage{
		Sender:          in.Sender,
		OriginalMessage: in.OriginalMessage,
		MessageForGPT:   in.MessageForGPT,
		ClientID:        in.ClientID,
	}, nil
}

// Relay publishes the message and, for client messages, the completion reply.
// Calls run in order and the first failure aborts the rest; an event that was
// already published stays published.
func (s *RelayService) Relay(ctx context.Context, in RelayInput) error {
	msg, err := Classify(in)
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case domain.OperatorMessage:
		return s.relayOperator(ctx, m)
	case domain.ClientMessage:
		return s.relayClient(ctx, m)
	default:
		return newError(ErrorInternal, "unknown_message_kind", fmt.Errorf("usecase: unexpected message type %T", msg))
	}
}

func (s *RelayService) relayOperator(ctx context.Context, m domain.OperatorMessage) error {
	return s.publish(ctx, domain.Event{
		Sender:   m.Sender,
		Message:  m.Text,
		ClientID: m.ClientID,
	})
}

func (s *RelayService) relayClient(ctx context.Context, m domain.ClientMessage) error {
	if err := s.publish(ctx, domain.Event{
		Sender:   m.Sender,
		Message:  m.OriginalMessage,
		ClientID: m.ClientID,
	}); err != nil {
		return err
	}

	reply, err := s.llm.Complete(ctx, s.model, buildPromptMessages(m.MessageForGPT))
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return newError(ErrorRateLimited, "completion_rate_limited", err)
		}
		return newError(ErrorUpstream, "completion_error", err)
	}

	return s.publish(ctx, domain.Event{
		Sender:   AssistantTag,
		Message:  reply,
		ClientID: m.ClientID,
	})
}

func (s *RelayService) publish(ctx context.Context, ev domain.Event) error {
	if err := s.pub.Publish(ctx, Channel, EventName, ev); err != nil {
		return newError(ErrorUpstream, "publish_error", err)
	}
	return nil
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
