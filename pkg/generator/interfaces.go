package generator

import (
	"context"

	"github.com/shouni/go-sprite-kit/pkg/domain"
)

// SpriteSeparator は、1枚の画像と指示文からスプライトシートを生成する契約です。
// 実装はリモートの生成APIを1回呼び出し、応答から最初の画像パートを取り出します。
type SpriteSeparator interface {
	// Separate は画像とプロンプトを送信し、生成されたシートを返します。
	// 応答に画像が含まれない場合は ErrNoImageInResponse を、
	// 通信・認証・サービス側の失敗は ErrRemoteCall を伴うエラーを返します。
	Separate(ctx context.Context, payload []byte, mimeType, prompt string) (*domain.SpriteSheet, error)
}
