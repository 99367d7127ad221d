package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-sprite-kit/internal/config"
	"github.com/shouni/go-sprite-kit/internal/pipeline"
	"github.com/shouni/go-sprite-kit/pkg/domain"

	"github.com/spf13/cobra"
)

// separateCmd は、入力画像のキャラクターをパーツ分解してスプライトシートを生成するのだ。
var separateCmd = &cobra.Command{
	Use:   "separate",
	Short: "キャラクター画像をパーツ分解してスプライトシートを生成するのだ。",
	Long: `入力されたキャラクター画像をAIで解析し、頭・胴体・四肢などのパーツを
透過背景の1枚のシートに並べたPNG画像を生成するのだ。
複数枚を指定した場合は、1枚ずつ順番に処理されるのだよ。`,
	RunE: separateCommand,
}

// separateCommand は、separate サブコマンドの実行ロジック本体なのだ。
// 設定のバリデーションを行い、pipeline.ExecuteSeparation を呼び出して一連の処理をキックするのだ。
func separateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック。状態を何も変更する前に弾くのだ
	if len(opts.ImageSources) == 0 {
		return fmt.Errorf("入力画像（--image）を1枚以上指定してほしいのだ")
	}
	if len(opts.ImageSources) > domain.SlotCount {
		return fmt.Errorf("入力画像は最大 %d 枚までなのだ（指定: %d 枚）", domain.SlotCount, len(opts.ImageSources))
	}
	if _, err := domain.ParseSeparationMode(opts.Mode); err != nil {
		return err
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.GeminiImageModel = opts.ImageModel
	cfg.Options = opts

	slog.Info("パーツ分解パイプラインを起動するのだ！",
		"mode", opts.Mode,
		"images", len(opts.ImageSources),
		"image_model", cfg.GeminiImageModel,
		"output", opts.OutputImageDir)

	// 3. パイプライン実行
	if err := pipeline.ExecuteSeparation(ctx, cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}
