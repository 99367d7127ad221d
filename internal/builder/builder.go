package builder

import (
	"context"
	"fmt"

	"github.com/shouni/go-sprite-kit/internal/config"
	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/encoder"
	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/prompts"
	"github.com/shouni/go-sprite-kit/pkg/publisher"
	"github.com/shouni/go-sprite-kit/pkg/runner"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const defaultGeminiTemperature = float32(0.2)

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, apiKey string) (gemini.GenerativeModel, error) {
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// BuildSlotStore は画像読み込みキャッシュ付きの SlotStore を構築します。
func BuildSlotStore(appCtx *AppContext) (*domain.SlotStore, error) {
	imgCache := cache.New(config.DefaultCacheTTL, 2*config.DefaultCacheTTL)
	loader, err := encoder.NewLoader(appCtx.Reader, appCtx.httpClient, imgCache, config.DefaultCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("画像ローダーの初期化に失敗したのだ: %w", err)
	}
	return domain.NewSlotStore(loader), nil
}

// BuildBatchRunner はパーツ分解バッチの Runner を構築します。
// 逐次実行の間隔はレートリミッターで制御するのだ。
func BuildBatchRunner(appCtx *AppContext, onResult runner.ResultObserver) (runner.BatchRunner, error) {
	separator, err := generator.NewGeminiSeparator(appCtx.aiClient, appCtx.Config.GeminiImageModel)
	if err != nil {
		return nil, fmt.Errorf("GeminiSeparatorの初期化に失敗したのだ: %w", err)
	}

	interval := appCtx.Options.RateInterval
	if interval <= 0 {
		interval = config.DefaultRateLimit
	}

	// Burst 1 により、同時に送信されるリクエストは常に1件だけなのだ
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	return runner.NewSeparationBatchRunner(
		separator,
		prompts.NewSeparationPromptBuilder(),
		limiter,
		onResult,
		nil,
	)
}

// BuildPublisher はシート保存を行うパブリッシャーを構築します。
func BuildPublisher(appCtx *AppContext) *publisher.SpritePublisher {
	return publisher.NewSpritePublisher(appCtx.Writer)
}
