package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/shouni/go-sprite-kit/internal/builder"
	"github.com/shouni/go-sprite-kit/internal/config"
	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/publisher"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
)

// ExecuteSeparation は、入力画像の取り込みからパーツ分解、シート保存までの
// 一連の処理を実行するのだ。
func ExecuteSeparation(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	// --- Phase 1: Attach Phase (画像の取り込み) ---
	store, err := runAttachStep(ctx, appCtx)
	if err != nil {
		return err
	}

	// --- Phase 2: Separation Phase (パーツ分解) ---
	results, err := runSeparationStep(ctx, appCtx, store)
	if err != nil {
		return err
	}

	// --- Phase 3: Publish Phase (保存) ---
	if err := runPublishStep(ctx, appCtx, results); err != nil {
		return err
	}

	slog.Info("パーツ分解と保存処理が完了したのだ！")
	return nil
}

// setupAppContext は、提供された設定と共有コンポーネントを使用して、アプリケーションコンテキストを初期化して返すのだ。
func setupAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	timeout := cfg.Options.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	httpClient := httpkit.New(timeout)

	aiClient, err := builder.InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai client: %w", err)
	}

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	appCtx := builder.NewAppContext(cfg, httpClient, aiClient, reader, writer)
	return &appCtx, nil
}

// runAttachStep は入力画像を枠に取り込み、--select による絞り込みを適用するのだ。
// 読み込み（デコード）だけは並行に走るが、リモート呼び出しはまだ行わないのだ。
func runAttachStep(ctx context.Context, appCtx *builder.AppContext) (*domain.SlotStore, error) {
	opts := appCtx.Options
	slog.Info("Phase 1: 画像の取り込みを開始するのだ...", "count", len(opts.ImageSources))

	store, err := builder.BuildSlotStore(appCtx)
	if err != nil {
		return nil, err
	}

	if err := store.AttachAll(ctx, opts.ImageSources); err != nil {
		return nil, fmt.Errorf("画像の取り込みに失敗したのだ: %w", err)
	}

	// --select が指定されていれば、挙げられなかった枠の選択を外すのだ
	if len(opts.Selection) > 0 {
		for id := 1; id <= domain.SlotCount; id++ {
			if err := store.SetSelected(id, slices.Contains(opts.Selection, id)); err != nil {
				return nil, err
			}
		}
	}

	return store, nil
}

// runSeparationStep はバッチランナーで選択済みの枠を1枚ずつ処理するのだ。
func runSeparationStep(ctx context.Context, appCtx *builder.AppContext, store *domain.SlotStore) ([]domain.ResultItem, error) {
	// アイテムが確定するたびに、次へ進む前へ結果を記録するのだ
	onResult := func(item domain.ResultItem) {
		switch item.Status {
		case domain.StatusCompleted:
			slog.Info("分解に成功したのだ", "slot", item.ID, "bytes", len(item.Output.Data))
		case domain.StatusError:
			slog.Warn("分解に失敗したのだ", "slot", item.ID, "reason", item.ErrorMessage)
		}
	}

	batchRunner, err := builder.BuildBatchRunner(appCtx, onResult)
	if err != nil {
		return nil, fmt.Errorf("BatchRunnerの構築に失敗したのだ: %w", err)
	}

	slog.Info("Phase 2: パーツ分解を開始するのだ...")
	results, err := batchRunner.Run(ctx, store, buildRequest(appCtx.Options))
	if err != nil {
		return nil, fmt.Errorf("パーツ分解に失敗したのだ: %w", err)
	}
	return results, nil
}

// runPublishStep は完了したシートを保存するのだ。
func runPublishStep(ctx context.Context, appCtx *builder.AppContext, results []domain.ResultItem) error {
	slog.Info("Phase 3: 保存処理を開始するのだ...")

	pub := builder.BuildPublisher(appCtx)
	out, err := pub.Publish(ctx, results, publisher.Options{OutputDir: appCtx.Options.OutputImageDir})
	if err != nil {
		return fmt.Errorf("保存処理に失敗したのだ: %w", err)
	}

	slog.Info("保存が完了したのだ", "saved", len(out.ImagePaths), "total", len(results))
	return nil
}

// buildRequest は CLI オプションから1回分の実行設定を組み立てるのだ。
// 設定は保存されず、実行のたびに作り直されるのだ。
func buildRequest(opts config.SeparateOptions) domain.SeparationRequest {
	mode, err := domain.ParseSeparationMode(opts.Mode)
	if err != nil {
		slog.Warn("不明なモードのためbasicで続行するのだ", "mode", opts.Mode)
		mode = domain.ModeBasic
	}

	return domain.SeparationRequest{
		Mode:                mode,
		IsolateBackground:   opts.IsolateBackground,
		PreserveProportions: opts.PreserveProportions,
		FreeText:            opts.FreeText,
	}
}
