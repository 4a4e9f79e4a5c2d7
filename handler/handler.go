package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"chat-relay/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type UseCase interface {
	Relay(ctx context.Context, in usecase.RelayInput) error
}

// relayRequest mirrors the JSON body posted by the operator panel and the
// client widget. fromControl is kept raw so any truthy JSON value counts;
// sender and clientId are kept raw so non-string ids pass through.
type relayRequest struct {
	Sender          json.RawMessage `json:"sender"`
	ClientID        json.RawMessage `json:"clientId"`
	FromControl     json.RawMessage `json:"fromControl"`
	Message         string          `json:"message"`
	OriginalMessage string          `json:"originalMessage"`
	MessageForGPT   string          `json:"messageForGpt"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type Handler struct {
	uc UseCase
}

func NewHandler(uc UseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	return &Handler{uc: uc}, nil
}

// Handle serves one API Gateway proxy request.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != http.MethodPost {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusMethodNotAllowed,
			Body:       "Method Not Allowed",
		}, nil
	}

	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := slog.With("correlation_id", correlationID)

	in, err := decodeRequest(req)
	if err != nil {
		return h.fail(logger, correlationID, usecase.NewInvalidBodyError(err)), nil
	}

	if err := h.uc.Relay(ctx, in); err != nil {
		return h.fail(logger, correlationID, err), nil
	}

	logger.Info("message relayed", "from_control", in.FromControl, "client_id", in.ClientID)
	return jsonResponse(http.StatusOK, correlationID, successResponse{Success: true}), nil
}

func (h *Handler) fail(logger *slog.Logger, correlationID string, err error) events.APIGatewayProxyResponse {
	reason := "internal_error"
	code := usecase.ErrorInternal
	var usecaseErr *usecase.Error
	if errors.As(err, &usecaseErr) {
		reason = usecaseErr.Reason
		code = usecaseErr.Code
	}
	logger.Error("relay failed", "code", code, "reason", reason, "err", err)

	// Every failure keeps the 500 contract; only the stable reason is exposed.
	return jsonResponse(http.StatusInternalServerError, correlationID, errorResponse{
		Success: false,
		Error:   reason,
	})
}

func decodeRequest(req events.APIGatewayProxyRequest) (usecase.RelayInput, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return usecase.RelayInput{}, fmt.Errorf("handler: decode base64 body: %w", err)
		}
		body = decoded
	}

	var r relayRequest
	if err := json.Unmarshal(body, &r); err != nil {
		return usecase.RelayInput{}, fmt.Errorf("handler: decode body: %w", err)
	}

	return usecase.RelayInput{
		FromControl:     truthy(r.FromControl),
		Sender:          passThrough(r.Sender),
		ClientID:        passThrough(r.ClientID),
		Message:         r.Message,
		OriginalMessage: r.OriginalMessage,
		MessageForGPT:   r.MessageForGPT,
	}, nil
}

// truthy reports whether a raw JSON value would be treated as true by a
// loosely typed client: false, null, 0, "" and absent are false, anything
// else is true.
func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch v[0] {
	case 'n', 'f':
		return false
	case 't', '[', '{':
		return true
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return false
		}
		return s != ""
	default:
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			return false
		}
		return n != 0
	}
}

// passThrough returns a JSON string's value, "" for null or absent, and the
// literal JSON text for any other value (e.g. a numeric clientId).
func passThrough(raw json.RawMessage) string {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return ""
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return string(v)
}

func jsonResponse(status int, correlationID string, body any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"success":false,"error":"internal_error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
			correlationHeader:             correlationID,
		},
		Body: string(raw),
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
