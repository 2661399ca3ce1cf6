// Package main provides localization for the lottie2apng CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag groups
		"Output":    "出力",
		"Rendering": "レンダリング",
		"Debug":     "デバッグ",
		"Logging":   "ログ",

		// Root command
		"Convert Lottie animations to animated PNG.": "Lottie アニメーションを APNG に変換します。",

		// Commands
		"Convert a Lottie animation to an animated PNG": "Lottie アニメーションを APNG に変換",
		"Show animation metadata":                       "アニメーションの情報を表示",
		"List the frames of an animated PNG":            "APNG のフレーム一覧を表示",
		"Run the HTTP conversion service":               "HTTP 変換サービスを起動",
		"Show version information":                      "バージョン情報を表示",
		"lottie2apng version %s":                        "lottie2apng バージョン %s",

		// Arguments and flags
		"Lottie JSON, dotLottie file or directory of PNG frames": "Lottie JSON、dotLottie ファイル、または PNG 連番のディレクトリ",
		"APNG file to inspect": "調べる APNG ファイル",
		"Output APNG path (default: suggested filename next to the input)":     "出力 APNG のパス (省略時は入力と同じ場所に推奨ファイル名で保存)",
		"Scale factor (1, 2, 3 or 4)":                                          "拡大倍率 (1, 2, 3, 4)",
		"Quality tier (lossless, high, medium, low)":                           "画質 (lossless, high, medium, low)",
		"Target frame rate (0, 60, 30, 24, 15 or 12; 0 keeps the native rate)": "出力フレームレート (0, 60, 30, 24, 15, 12。0 は元のまま)",
		"Number of plays (0 = infinite)":                                       "再生回数 (0 = 無限)",
		"Write a Markdown conversion summary to this path (- for stdout)":      "Markdown 形式の変換サマリーをこのパスに書き出す",
		"Overwrite an existing output file":                                    "既存の出力ファイルを上書きする",
		"Renderer (auto, vector, chrome)":                                      "レンダラー (auto, vector, chrome)",
		"Path to Chrome executable (falls back to CHROME_PATH env)":            "Chrome 実行ファイルのパス (省略時は CHROME_PATH 環境変数)",
		"Run the browser in non-headless mode":                                 "ブラウザを表示モードで起動する",
		"Frame rate of PNG sequence inputs":                                    "PNG 連番入力のフレームレート",
		"Configuration file (YAML or TOML)":                                    "設定ファイル (YAML または TOML)",
		"Enable debug output":                                                  "デバッグ出力を有効にする",
		"Directory for debug output":                                           "デバッグ出力先ディレクトリ",
		"Log level (debug, info, warn, error)":                                 "ログレベル (debug, info, warn, error)",
		"Suppress log output and the progress bar":                             "ログと進捗バーを表示しない",
		"Listen address (default: 127.0.0.1:8080)":                             "待ち受けアドレス (省略時: 127.0.0.1:8080)",
		"Maximum upload size in bytes":                                         "アップロードの最大バイト数",

		// Tables and summary
		"Item":                    "項目",
		"Value":                   "値",
		"Name":                    "名前",
		"Path":                    "パス",
		"Format":                  "形式",
		"Renderer":                "レンダラー",
		"Size":                    "サイズ",
		"Frame Rate":              "フレームレート",
		"Frames":                  "フレーム数",
		"Frame":                   "フレーム",
		"Offset":                  "オフセット",
		"Delay":                   "遅延",
		"Delay (ms)":              "遅延 (ms)",
		"Data":                    "データ",
		"Duration":                "長さ",
		"Lottie Version":          "Lottie バージョン",
		"Layers":                  "レイヤー数",
		"Unsupported":             "未対応",
		"Untitled":                "無題",
		"Output at %dx":           "%d 倍出力",
		"Quality %s":              "画質 %s",
		"Animated":                "アニメーション",
		"Bit Depth":               "ビット深度",
		"Color Type":              "カラータイプ",
		"Palette":                 "パレット",
		"File Size":               "ファイルサイズ",
		"Loop":                    "ループ",
		"Infinite":                "無限",
		"Total duration: %.0f ms": "合計時間: %.0f ms",
		"Upload exceeds %s":       "アップロードが %s を超えています",

		"Conversion Summary": "変換サマリー",
		"Source":             "入力",
		"Settings":           "設定",
		"Scale":              "倍率",
		"Quality":            "画質",
		"colors":             "色",
		"Target Frame Rate":  "出力フレームレート",
		"Native":             "元のまま",
		"Suggested Filename": "推奨ファイル名",
		"Duplicates Folded":  "まとめた重複フレーム",
		"Elapsed":            "所要時間",
		"Generated at":       "生成日時",
	})
}
