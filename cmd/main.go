package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"chat-relay/handler"
	"chat-relay/internal/integrations/openai"
	"chat-relay/internal/integrations/paramstore"
	"chat-relay/internal/integrations/pusher"
	"chat-relay/internal/integrations/redispub"
	"chat-relay/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	paramPrefix := strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/")
	backend := strings.ToLower(envOr("PUBLISH_BACKEND", "pusher"))
	model := envOr("OPENAI_MODEL", "gpt-3.5-turbo")
	openaiKey := os.Getenv("OPENAI_API_KEY")

	// ---- Parameter store (optional secret source) ----
	var params *paramstore.Client
	if paramPrefix != "" {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
		params, err = paramstore.New(awsssm.NewFromConfig(cfg))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
	}

	// ---- Clients ----
	var publisher usecase.Publisher
	switch backend {
	case "pusher":
		p, err := newPusherPublisher(ctx, params, paramPrefix)
		if err != nil {
			slog.Error("failed to create Pusher client", "err", err)
			os.Exit(1)
		}
		publisher = p
	case "redis":
		p, err := redispub.NewFromURL(ctx, mustEnv("REDIS_URL"))
		if err != nil {
			slog.Error("failed to create redis publisher", "err", err)
			os.Exit(1)
		}
		publisher = p
	default:
		slog.Error("unknown publish backend", "backend", backend)
		os.Exit(1)
	}

	var (
		openaiClient *openai.Client
		err          error
	)
	switch {
	case openaiKey != "":
		openaiClient, err = openai.NewClient(openaiKey)
	case params != nil:
		openaiClient, err = openai.NewClientFromParamStore(params, paramPrefix+"/openai-api-key")
	default:
		slog.Error("required environment variable is not set", "key", "OPENAI_API_KEY")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	relayService, err := usecase.NewRelayService(publisher, openaiClient, model)
	if err != nil {
		slog.Error("failed to create relay service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(relayService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	slog.Info("chat relay ready", "backend", backend, "model", model)
	lambda.Start(h.Handle)
}

// newPusherPublisher builds the Pusher client. Key and secret come from the
// environment, or from the parameter store when they are not set there.
func newPusherPublisher(ctx context.Context, params *paramstore.Client, paramPrefix string) (*pusher.Client, error) {
	key := os.Getenv("PUSHER_KEY")
	secret := os.Getenv("PUSHER_SECRET")
	if (key == "" || secret == "") && params != nil {
		keyParam := paramPrefix + "/pusher-key"
		secretParam := paramPrefix + "/pusher-secret"
		values, err := params.GetParameters(ctx, keyParam, secretParam)
		if err != nil {
			return nil, err
		}
		key, secret = values[keyParam], values[secretParam]
	}

	sdk, err := pusher.NewSDKClient(pusher.Config{
		AppID:   mustEnv("PUSHER_APP_ID"),
		Key:     key,
		Secret:  secret,
		Cluster: os.Getenv("PUSHER_CLUSTER"),
		UseTLS:  envBool("PUSHER_USE_TLS", true),
		Host:    os.Getenv("PUSHER_HOST"),
	}, nil)
	if err != nil {
		return nil, err
	}
	return pusher.New(sdk)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean environment variable, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}
