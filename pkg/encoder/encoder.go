// Package encoder は画像ソース（ローカルパス・gs://・http(s)://）を読み込み、
// リモートAPIへ渡せる形式に変換します。ネットワーク生成呼び出しは行いません。
package encoder

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/domain"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

const cacheKeyEncoded = "encoded_image:"

// ErrNotImage は読み込んだデータが画像として解釈できなかったことを示します。
// 読み込み自体の失敗（I/Oエラー等）とは区別されます。
var ErrNotImage = errors.New("画像データとして解釈できません")

// ImageCacher は読み込み結果をキャッシュするためのインターフェースです。
type ImageCacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// Loader は各種ソースから画像を読み込む実体です。
// gs:// とローカルパスは reader、http(s):// は httpClient が担当します。
type Loader struct {
	reader     remoteio.InputReader
	httpClient httpkit.ClientInterface
	cache      ImageCacher
	expiration time.Duration
}

// NewLoader は依存関係を注入して Loader を初期化します。
// cache は nil を許容します（キャッシュなし動作）。
func NewLoader(reader remoteio.InputReader, httpClient httpkit.ClientInterface, cache ImageCacher, cacheTTL time.Duration) (*Loader, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}

	return &Loader{
		reader:     reader,
		httpClient: httpClient,
		cache:      cache,
		expiration: cacheTTL,
	}, nil
}

// Load はソースを読み込み、MIME判定とプレビュー生成を行って返します。
// 同じソースの再読み込みはキャッシュで短絡します。
func (l *Loader) Load(ctx context.Context, source string) (*domain.EncodedImage, error) {
	if l.cache != nil {
		if val, ok := l.cache.Get(cacheKeyEncoded + source); ok {
			if img, ok := val.(*domain.EncodedImage); ok {
				return img, nil
			}
		}
	}

	data, err := l.fetchBytes(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("'%s' の読み込みに失敗しました: %w", source, err)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("'%s' (%s): %w", source, mimeType, ErrNotImage)
	}

	img := &domain.EncodedImage{
		Source:   source,
		Data:     data,
		MimeType: mimeType,
		Preview:  ToDataURI(data, mimeType),
	}

	if l.cache != nil {
		l.cache.Set(cacheKeyEncoded+source, img, l.expiration)
	}
	return img, nil
}

// fetchBytes はソースの種類に応じて読み込み手段を振り分けます。
func (l *Loader) fetchBytes(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return l.httpClient.FetchBytes(ctx, source)
	}

	// gs:// とローカルパスは InputReader がまとめて面倒を見てくれます
	rc, err := l.reader.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ToDataURI はバイト列を data URI 形式のプレビュー文字列に変換します。
func ToDataURI(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
