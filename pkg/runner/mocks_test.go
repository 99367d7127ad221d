package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/shouni/go-sprite-kit/pkg/domain"
)

// --- Mocks ---

// stubLoader は SlotStore へ画像を流し込むためのテスト用ローダーです。
type stubLoader struct{}

func (l *stubLoader) Load(_ context.Context, source string) (*domain.EncodedImage, error) {
	return &domain.EncodedImage{
		Source:   source,
		Data:     []byte("data-" + source),
		MimeType: "image/png",
		Preview:  "data:image/png;base64," + source,
	}, nil
}

// mockSeparator は呼び出し履歴を記録し、指定した枠だけ失敗させられます。
type mockSeparator struct {
	mu       sync.Mutex
	calls    []string // 呼び出し順のイベントログ（テスト側の observer と共有）
	failWith map[int]error
	prompts  []string
	block    chan struct{} // 非nilなら呼び出しをブロックする
	started  chan struct{} // 非nilなら最初の呼び出し開始を通知する
}

func newMockSeparator() *mockSeparator {
	return &mockSeparator{failWith: map[int]error{}}
}

func (m *mockSeparator) Separate(ctx context.Context, payload []byte, mimeType, prompt string) (*domain.SpriteSheet, error) {
	if m.started != nil {
		select {
		case m.started <- struct{}{}:
		default:
		}
	}
	if m.block != nil {
		<-m.block
	}

	m.mu.Lock()
	m.calls = append(m.calls, "separate:"+string(payload))
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	for id, err := range m.failWith {
		if string(payload) == fmt.Sprintf("data-slot%d.png", id) {
			return nil, err
		}
	}
	return &domain.SpriteSheet{Data: []byte("sheet-" + string(payload)), MimeType: "image/png"}, nil
}

func (m *mockSeparator) record(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, event)
}

func (m *mockSeparator) events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// countingPrompt は Build の呼び出し回数を数えるスタブです。
type countingPrompt struct {
	mu     sync.Mutex
	builds int
}

func (p *countingPrompt) Build(req domain.SeparationRequest) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds++
	return fmt.Sprintf("prompt(mode=%s)", req.Mode)
}

// newTestStore は指定枠に画像を添付済みの SlotStore を作ります。
func newTestStore(ids ...int) *domain.SlotStore {
	store := domain.NewSlotStore(&stubLoader{})
	for _, id := range ids {
		if err := store.Attach(context.Background(), id, fmt.Sprintf("slot%d.png", id)); err != nil {
			panic(err)
		}
	}
	return store
}
