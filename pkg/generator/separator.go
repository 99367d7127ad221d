// Package generator はリモートの生成画像APIへの唯一の窓口です。
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/go-sprite-kit/pkg/domain"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

var (
	// ErrNoImageInResponse は、呼び出し自体は成功したが応答に画像パートが
	// 1つも含まれていなかったことを示します。通信失敗とは区別されます。
	ErrNoImageInResponse = errors.New("AIの応答に画像データが見つかりませんでした")

	// ErrRemoteCall は、通信・認証・サービス側の失敗を示します。
	// 元のエラーメッセージはラップして保持されます。
	ErrRemoteCall = errors.New("リモートAPIの呼び出しに失敗しました")
)

// GeminiSeparator は Gemini の画像モデルでキャラクターのパーツ分解を行う実体です。
type GeminiSeparator struct {
	aiClient gemini.GenerativeModel
	model    string
}

// NewGeminiSeparator は依存関係を注入して GeminiSeparator を初期化します。
func NewGeminiSeparator(aiClient gemini.GenerativeModel, model string) (*GeminiSeparator, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &GeminiSeparator{
		aiClient: aiClient,
		model:    model,
	}, nil
}

// Separate は1回分のリクエストを実行します。パートの並びは「画像 → 指示文」で、
// モデルが参照すべき素材を先に受け取る形にしています。
func (g *GeminiSeparator) Separate(ctx context.Context, payload []byte, mimeType, prompt string) (*domain.SpriteSheet, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("画像データが空です")
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("画像以外のMIMEタイプです: %s", mimeType)
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: payload}},
		{Text: prompt},
	}

	resp, err := g.aiClient.GenerateWithParts(ctx, g.model, parts, gemini.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}

	return extractFirstImage(resp)
}

// extractFirstImage は応答のパートを先頭から走査し、最初のインライン画像を返します。
func extractFirstImage(resp *gemini.Response) (*domain.SpriteSheet, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, ErrNoImageInResponse
	}

	candidate := resp.RawResponse.Candidates[0]
	if candidate.Content == nil {
		return nil, ErrNoImageInResponse
	}

	for _, part := range candidate.Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return &domain.SpriteSheet{
				Data:     part.InlineData.Data,
				MimeType: part.InlineData.MIMEType,
			}, nil
		}
	}
	return nil, ErrNoImageInResponse
}
