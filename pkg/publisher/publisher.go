// Package publisher は生成されたスプライトシートの永続化を担います。
package publisher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-sprite-kit/pkg/domain"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// 成果物のファイル名は「固定プレフィックス + 元になった枠のID」です。
const (
	outputFilePrefix = "sprite_sheet"
	outputFileExt    = ".png"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string // ローカルディレクトリ または gs://...
}

// PublishResult はパブリッシュ処理で書き出されたファイルの情報を保持します。
type PublishResult struct {
	ImagePaths []string // 保存された全シートのパスリスト
}

// SpritePublisher は完了アイテムのシートを出力先へ書き出します。
// エラー状態のアイテムは黙ってスキップされるのではなく、ログに残します。
type SpritePublisher struct {
	writer remoteio.OutputWriter
}

// NewSpritePublisher は指定された writer で新しいパブリッシャーを生成します。
func NewSpritePublisher(writer remoteio.OutputWriter) *SpritePublisher {
	return &SpritePublisher{writer: writer}
}

// Publish は completed 状態のアイテムのシートをすべて保存し、
// 書き出したパスの一覧を返します。
func (p *SpritePublisher) Publish(ctx context.Context, results []domain.ResultItem, opts Options) (PublishResult, error) {
	out := PublishResult{}

	for _, item := range results {
		if item.Status != domain.StatusCompleted || item.Output == nil {
			slog.Warn("未完了のアイテムは保存をスキップします", "slot", item.ID, "status", item.Status)
			continue
		}

		fileName := fmt.Sprintf("%s_%d%s", outputFilePrefix, item.ID, outputFileExt)
		path, err := ResolveOutputPath(opts.OutputDir, fileName)
		if err != nil {
			return out, err
		}

		if err := p.writer.Write(ctx, path, bytes.NewReader(item.Output.Data), item.Output.MimeType); err != nil {
			return out, fmt.Errorf("シートの書き込みに失敗しました (枠 %d): %w", item.ID, err)
		}

		slog.Info("スプライトシートを保存しました", "slot", item.ID, "path", path)
		out.ImagePaths = append(out.ImagePaths, path)
	}

	return out, nil
}
