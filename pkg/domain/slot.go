package domain

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SlotCount は一度のセッションで扱える入力画像の枠数です。
const SlotCount = 4

// EncodedImage は読み込み済みの画像データとそのメタ情報を保持します。
type EncodedImage struct {
	Source   string // 元のパスまたはURL
	Data     []byte // 生のバイト列（APIへはこのまま渡す）
	MimeType string // http.DetectContentType で判定したMIMEタイプ
	Preview  string // data URI 形式のプレビュー文字列
}

// ImageLoader は画像ソースを読み込んで EncodedImage に変換する契約です。
// 実装は pkg/encoder にあります。
type ImageLoader interface {
	Load(ctx context.Context, source string) (*EncodedImage, error)
}

// ImageSlot は固定枠の1つを表します。ID は 1..SlotCount で固定であり、
// 枠そのものが破棄されることはありません（クリアされるだけです）。
type ImageSlot struct {
	ID         int
	Image      *EncodedImage // nil なら空き枠
	IsSelected bool
}

// HasImage は枠に画像が添付されているかを返します。
func (s *ImageSlot) HasImage() bool {
	return s.Image != nil
}

// SlotStore は固定数のアップロード枠を管理します。
// 添付・選択・クリアはすべて単一の枠だけを書き換え、他の枠には触れません。
type SlotStore struct {
	mu     sync.Mutex
	loader ImageLoader
	slots  map[int]*ImageSlot
}

// NewSlotStore は空の枠を SlotCount 個持つストアを生成します。
func NewSlotStore(loader ImageLoader) *SlotStore {
	slots := make(map[int]*ImageSlot, SlotCount)
	for id := 1; id <= SlotCount; id++ {
		slots[id] = &ImageSlot{ID: id}
	}
	return &SlotStore{loader: loader, slots: slots}
}

// Attach はソースを読み込んで指定枠に添付します。
// 添付に成功した枠は自動的に選択状態になります。読み込みに失敗した場合、
// 枠の状態は一切変更されません。
func (st *SlotStore) Attach(ctx context.Context, id int, source string) error {
	if err := st.validateID(id); err != nil {
		return err
	}

	img, err := st.loader.Load(ctx, source)
	if err != nil {
		return fmt.Errorf("枠 %d への画像添付に失敗しました: %w", id, err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	slot := st.slots[id]
	slot.Image = img
	slot.IsSelected = true
	return nil
}

// AttachAll は複数ソースを枠 1..n に並行して添付します。
// 並行するのはローカルの読み込み処理だけであり、リモートAPIへの呼び出しは含まれません。
func (st *SlotStore) AttachAll(ctx context.Context, sources []string) error {
	if len(sources) > SlotCount {
		return fmt.Errorf("入力画像は最大 %d 枚までです（指定: %d 枚）", SlotCount, len(sources))
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for i, src := range sources {
		id, src := i+1, src
		eg.Go(func() error {
			return st.Attach(egCtx, id, src)
		})
	}
	return eg.Wait()
}

// SetSelected は選択フラグを直接設定します。画像が無い枠にも設定はできますが、
// 処理対象の抽出時には画像の有無も条件になるため実質的な効果はありません。
func (st *SlotStore) SetSelected(id int, selected bool) error {
	if err := st.validateID(id); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.slots[id].IsSelected = selected
	return nil
}

// Clear は枠を空に戻します。選択フラグも同時に解除されます。
func (st *SlotStore) Clear(id int) error {
	if err := st.validateID(id); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	slot := st.slots[id]
	slot.Image = nil
	slot.IsSelected = false
	return nil
}

// Slot は指定IDの枠のコピーを返します。
func (st *SlotStore) Slot(id int) (ImageSlot, error) {
	if err := st.validateID(id); err != nil {
		return ImageSlot{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return *st.slots[id], nil
}

// Selected は「選択済み かつ 画像あり」の枠のスナップショットをID昇順で返します。
// 返り値はコピーなので、後続の枠操作の影響を受けません。
func (st *SlotStore) Selected() []ImageSlot {
	st.mu.Lock()
	defer st.mu.Unlock()

	ids := make([]int, 0, len(st.slots))
	for id := range st.slots {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	selected := make([]ImageSlot, 0, len(ids))
	for _, id := range ids {
		slot := st.slots[id]
		if slot.IsSelected && slot.HasImage() {
			selected = append(selected, *slot)
		}
	}
	return selected
}

func (st *SlotStore) validateID(id int) error {
	if id < 1 || id > SlotCount {
		return fmt.Errorf("枠IDは 1〜%d の範囲で指定してください（指定: %d）", SlotCount, id)
	}
	return nil
}
