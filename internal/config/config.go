package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultImageModel    = "gemini-2.5-flash-image"
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultRateLimit     = 10 * time.Second // 逐次リクエストの間隔（呼び出し単価対策）
	DefaultCacheTTL      = 1 * time.Hour
	DefaultLocalImageDir = "output/sprites" // 生成されたシートのデフォルト保存先なのだ
	DefaultMode          = "basic"
)

// Config はアプリケーション全体の環境設定（APIキーやクラウド設定）を保持する構造体なのだ。
type Config struct {
	ProjectID        string
	LocationID       string
	GeminiAPIKey     string
	GeminiImageModel string

	Options SeparateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		ProjectID:        envutil.GetEnv("PROJECT_ID", ""),
		LocationID:       envutil.GetEnv("REGION", ""),
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
	}
	return cfg
}

// SeparateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type SeparateOptions struct {
	// ソース入力関連
	ImageSources []string // --image: 入力画像（最大4枚、指定順に枠1〜4へ入る）
	Selection    []int    // --select: 処理対象の枠IDを絞り込む（省略時は添付済み全枠）

	// 分解の挙動設定
	Mode                string // --mode: basic または detailed
	IsolateBackground   bool   // --isolate-background
	PreserveProportions bool   // --keep-proportions
	FreeText            string // --prompt: ユーザーの追加指示

	// 生成結果の出力設定
	OutputImageDir string // --output-image-dir

	// AI挙動設定
	ImageModel string // --image-model: 画像生成用のGeminiモデル

	// 実行制御
	HTTPTimeout  time.Duration // --http-timeout
	RateInterval time.Duration // --rate-interval: リモート呼び出しの間隔
}
