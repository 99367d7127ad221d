package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-sprite-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// opts は CLI フラグの値を集約する実行時パラメータなのだ。
var opts config.SeparateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringSliceVarP(&opts.ImageSources, "image", "i", nil, "入力画像（パス / URL / gs://）。最大4枚、指定順に枠1〜4へ入るのだ。")
	rootCmd.PersistentFlags().IntSliceVar(&opts.Selection, "select", nil, "処理対象の枠IDを絞り込むのだ（例: 1,4。省略時は添付済み全枠）。")

	// --- 分解の挙動設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.Mode, "mode", "m", config.DefaultMode, "分解モード（basic: 6パーツ / detailed: 11パーツ）なのだ。")
	rootCmd.PersistentFlags().BoolVar(&opts.IsolateBackground, "isolate-background", true, "キャラクターを元の背景から完全に分離するのだ。")
	rootCmd.PersistentFlags().BoolVar(&opts.PreserveProportions, "keep-proportions", true, "パーツ間の相対比率を維持するのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.FreeText, "prompt", "p", "", "AIへの追加指示（自由入力）なのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputImageDir, "output-image-dir", "o", config.DefaultLocalImageDir, "生成されたシートを保存するディレクトリ（ローカル or gs://...）なのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "使用する Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", config.DefaultRateLimit, "リモート呼び出しの最短間隔なのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// .env があれば読み込む（無くてもエラーにはしないのだ）
	_ = godotenv.Load()

	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"sprite-kit-go",
		addAppFlags,
		preRunAppE,
		separateCmd,
	)
}
