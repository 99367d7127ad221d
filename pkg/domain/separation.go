package domain

import "fmt"

// SeparationMode はキャラクターを何段階の細かさでパーツ分解するかの設定です。
type SeparationMode string

const (
	// ModeBasic は頭・胴体・四肢の6パーツに分解します。
	ModeBasic SeparationMode = "basic"
	// ModeDetailed は髪・目・口・衣服・装飾品まで含む11パーツに分解します。
	ModeDetailed SeparationMode = "detailed"
)

// ParseSeparationMode は文字列を SeparationMode に変換します。
func ParseSeparationMode(s string) (SeparationMode, error) {
	switch SeparationMode(s) {
	case ModeBasic:
		return ModeBasic, nil
	case ModeDetailed:
		return ModeDetailed, nil
	default:
		return "", fmt.Errorf("不明な分解モードです: %q（basic または detailed を指定してください）", s)
	}
}

// SeparationRequest は1回の実行に対する設定です。永続化はされず、
// 実行のたびに組み立て直されます。
type SeparationRequest struct {
	Mode                SeparationMode
	IsolateBackground   bool   // 元の背景からの完全分離を指示する
	PreserveProportions bool   // パーツ間の相対比率の維持を指示する
	FreeText            string // ユーザーの追加指示（空でもよい）
}

// SpriteSheet は生成されたスプライトシート画像です。
type SpriteSheet struct {
	Data     []byte
	MimeType string
}

// ResultStatus は各アイテムの処理状態です。processing から始まり、
// completed か error のどちらか一方へちょうど1回だけ遷移します。
type ResultStatus string

const (
	StatusProcessing ResultStatus = "processing"
	StatusCompleted  ResultStatus = "completed"
	StatusError      ResultStatus = "error"
)

// ResultItem は1枠分の処理結果です。InputImage は実行開始時点の
// プレビューのスナップショットであり、後から枠が変更されても影響を受けません。
type ResultItem struct {
	ID           int          // 元になった枠のID
	InputImage   string       // 入力プレビュー（data URI）
	Output       *SpriteSheet // 成功時のみ非nil
	Status       ResultStatus
	ErrorMessage string // Status が StatusError の場合のみ設定される
}
