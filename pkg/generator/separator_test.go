package generator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNewGeminiSeparator(t *testing.T) {
	t.Run("依存関係が欠けている場合はエラーになること", func(t *testing.T) {
		_, err := NewGeminiSeparator(nil, "model")
		assert.Error(t, err)

		_, err = NewGeminiSeparator(&mockAIClient{}, "")
		assert.Error(t, err)
	})
}

func TestGeminiSeparator_Separate(t *testing.T) {
	ctx := context.Background()
	payload := []byte("fake-image-binary")

	t.Run("最初のインライン画像パートが返ること", func(t *testing.T) {
		ai := &mockAIClient{
			resp: imageResponse(
				&genai.Part{Text: "こちらが分解結果です"},
				&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("first")}},
				&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("second")}},
			),
		}
		sep, err := NewGeminiSeparator(ai, "gemini-2.5-flash-image")
		require.NoError(t, err)

		sheet, err := sep.Separate(ctx, payload, "image/png", "prompt")
		require.NoError(t, err)

		// テキストパートは読み飛ばし、画像パートのうち先頭のものを採用する
		assert.Equal(t, []byte("first"), sheet.Data)
		assert.Equal(t, "image/png", sheet.MimeType)
	})

	t.Run("パートの並びが「画像→指示文」で送信されること", func(t *testing.T) {
		ai := &mockAIClient{
			resp: imageResponse(&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("ok")}}),
		}
		sep, _ := NewGeminiSeparator(ai, "test-model")

		_, err := sep.Separate(ctx, payload, "image/jpeg", "分解の指示")
		require.NoError(t, err)

		require.Len(t, ai.lastParts, 2)
		require.NotNil(t, ai.lastParts[0].InlineData)
		assert.Equal(t, "image/jpeg", ai.lastParts[0].InlineData.MIMEType)
		assert.Equal(t, payload, ai.lastParts[0].InlineData.Data)
		assert.Equal(t, "分解の指示", ai.lastParts[1].Text)
		assert.Equal(t, "test-model", ai.lastModel)
	})

	t.Run("応答に画像が無い場合は ErrNoImageInResponse になること", func(t *testing.T) {
		ai := &mockAIClient{
			resp: imageResponse(&genai.Part{Text: "画像は生成できませんでした"}),
		}
		sep, _ := NewGeminiSeparator(ai, "test-model")

		_, err := sep.Separate(ctx, payload, "image/png", "prompt")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoImageInResponse)
		// 通信エラーとは区別される
		assert.NotErrorIs(t, err, ErrRemoteCall)
	})

	t.Run("通信エラーは ErrRemoteCall として元のメッセージを保持すること", func(t *testing.T) {
		underlying := fmt.Errorf("401: API key not valid")
		ai := &mockAIClient{err: underlying}
		sep, _ := NewGeminiSeparator(ai, "test-model")

		_, err := sep.Separate(ctx, payload, "image/png", "prompt")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRemoteCall)
		assert.NotErrorIs(t, err, ErrNoImageInResponse)
		assert.Contains(t, err.Error(), "API key not valid")
		assert.True(t, errors.Is(err, underlying))
	})

	t.Run("空の応答やパート無しは ErrNoImageInResponse になること", func(t *testing.T) {
		sep, _ := NewGeminiSeparator(&mockAIClient{resp: nil}, "test-model")
		_, err := sep.Separate(ctx, payload, "image/png", "prompt")
		assert.ErrorIs(t, err, ErrNoImageInResponse)

		sep2, _ := NewGeminiSeparator(&mockAIClient{resp: imageResponse()}, "test-model")
		_, err = sep2.Separate(ctx, payload, "image/png", "prompt")
		assert.ErrorIs(t, err, ErrNoImageInResponse)
	})

	t.Run("不正な入力はリモートを呼ばずにエラーになること", func(t *testing.T) {
		ai := &mockAIClient{}
		sep, _ := NewGeminiSeparator(ai, "test-model")

		_, err := sep.Separate(ctx, nil, "image/png", "prompt")
		assert.Error(t, err)

		_, err = sep.Separate(ctx, payload, "text/plain", "prompt")
		assert.Error(t, err)

		assert.Zero(t, ai.generateCalled)
	})
}
