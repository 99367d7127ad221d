// Package runner は選択された枠を順番に処理するバッチ実行を担います。
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/prompts"

	"golang.org/x/time/rate"
)

var (
	// ErrNoSelection は、処理対象の枠が1つも無い状態で実行が要求されたことを示します。
	// どの状態も変更される前に返されるため、ユーザーは選択し直して再実行できます。
	ErrNoSelection = errors.New("処理対象の画像が選択されていません")

	// ErrRunInProgress は、実行中に新しい実行が要求されたことを示します。
	ErrRunInProgress = errors.New("すでに実行中です。完了を待ってから再実行してください")
)

// ResultObserver は各アイテムの確定結果を受け取るコールバックです。
// アイテム k の確定は、アイテム k+1 のリクエスト送信より前に必ず通知されます。
type ResultObserver func(item domain.ResultItem)

// ProgressObserver は人間向けの進捗メッセージを受け取るコールバックです。
type ProgressObserver func(message string)

// BatchRunner は1回分のバッチ実行の契約です。
type BatchRunner interface {
	Run(ctx context.Context, store *domain.SlotStore, req domain.SeparationRequest) ([]domain.ResultItem, error)
}

// SeparationBatchRunner は選択済みの枠を厳密に1枚ずつ順番に処理します。
// 逐次処理なのは意図的な設計です。リモートAPIは呼び出し単価とレート制限が
// 厳しいため、同時送信数を1に抑えて進捗の順序も決定的に保ちます。
type SeparationBatchRunner struct {
	separator  generator.SpriteSeparator
	prompt     prompts.SpritePrompt
	limiter    *rate.Limiter // nil ならレート制御なし
	onResult   ResultObserver
	onProgress ProgressObserver

	mu      sync.Mutex
	running bool
}

// NewSeparationBatchRunner は依存関係を注入してランナーを初期化します。
// limiter・observer はいずれも nil を許容します。
func NewSeparationBatchRunner(
	separator generator.SpriteSeparator,
	prompt prompts.SpritePrompt,
	limiter *rate.Limiter,
	onResult ResultObserver,
	onProgress ProgressObserver,
) (*SeparationBatchRunner, error) {
	if separator == nil {
		return nil, fmt.Errorf("separator is required")
	}
	if prompt == nil {
		return nil, fmt.Errorf("prompt builder is required")
	}

	return &SeparationBatchRunner{
		separator:  separator,
		prompt:     prompt,
		limiter:    limiter,
		onResult:   onResult,
		onProgress: onProgress,
	}, nil
}

// Run は1回分のバッチを実行し、スナップショット順の結果リストを返します。
//
// 各アイテムは processing から completed か error のどちらかへちょうど1回だけ
// 遷移します。アイテム単位の失敗はそのアイテムの error 状態に変換されるだけで、
// 後続のアイテムの処理を止めることはありません。
//
// なお、画像の読み込み・デコードの失敗はここには到達しません。エンコードは
// 枠への添付時に行われるため、その種のエラーは Run より前に検出されます。
func (r *SeparationBatchRunner) Run(ctx context.Context, store *domain.SlotStore, req domain.SeparationRequest) ([]domain.ResultItem, error) {
	// 1. 対象の抽出。空ならどの状態にも触れずに弾きます。
	snapshot := store.Selected()
	if len(snapshot) == 0 {
		return nil, ErrNoSelection
	}

	// 2. 実行中フラグの確保。最後のアイテムが確定するまで降ろしません。
	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer r.release()

	// 3. 共有プロンプトは実行開始時点の設定から1回だけ組み立てます。
	sharedPrompt := r.prompt.Build(req)

	// 4. 結果リストの初期化。スナップショットと同じ順序で全件 processing です。
	results := make([]domain.ResultItem, len(snapshot))
	for i, slot := range snapshot {
		results[i] = domain.ResultItem{
			ID:         slot.ID,
			InputImage: slot.Image.Preview,
			Status:     domain.StatusProcessing,
		}
	}

	total := len(snapshot)
	slog.Info("パーツ分解バッチを開始します", "count", total, "mode", req.Mode)

	for i, slot := range snapshot {
		r.publishProgress(fmt.Sprintf("%d/%d 枚目のキャラクターを分解しています...", i+1, total))

		results[i] = r.processItem(ctx, slot, sharedPrompt)

		// 確定した結果は次のアイテムに着手する前に必ず公開します
		r.publishResult(results[i])
	}

	r.publishProgress("すべての処理が完了しました")
	slog.Info("パーツ分解バッチが完了しました", "count", total)
	return results, nil
}

// processItem は1アイテム分のパイプライン（待機 → リモート呼び出し）を実行し、
// 確定状態の ResultItem を返します。失敗はここで吸収され、呼び出し元へは
// error 状態として渡ります。
func (r *SeparationBatchRunner) processItem(ctx context.Context, slot domain.ImageSlot, prompt string) domain.ResultItem {
	item := domain.ResultItem{
		ID:         slot.ID,
		InputImage: slot.Image.Preview,
		Status:     domain.StatusProcessing,
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return failed(item, err)
		}
	}

	sheet, err := r.separator.Separate(ctx, slot.Image.Data, slot.Image.MimeType, prompt)
	if err != nil {
		slog.Error("パーツ分解に失敗しました", "slot", slot.ID, "error", err)
		return failed(item, err)
	}

	item.Status = domain.StatusCompleted
	item.Output = sheet
	return item
}

func failed(item domain.ResultItem, err error) domain.ResultItem {
	item.Status = domain.StatusError
	item.ErrorMessage = err.Error()
	return item
}

func (r *SeparationBatchRunner) acquire() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrRunInProgress
	}
	r.running = true
	return nil
}

func (r *SeparationBatchRunner) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
}

func (r *SeparationBatchRunner) publishResult(item domain.ResultItem) {
	if r.onResult != nil {
		r.onResult(item)
	}
}

func (r *SeparationBatchRunner) publishProgress(message string) {
	slog.Info(message)
	if r.onProgress != nil {
		r.onProgress(message)
	}
}
