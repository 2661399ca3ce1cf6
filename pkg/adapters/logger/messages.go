package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Starting conversion %s":                                 "変換 %s を開始します",
		"Sampling %d of %d source frames at %s fps":              "元の %[2]d フレームから %[1]d フレームを %[3]s fps でサンプリングします",
		"Capturing frames at %dx%d":                              "%dx%d でフレームをキャプチャ中",
		"Captured %d frames, %d unique after folding duplicates": "%d フレームをキャプチャ、重複をまとめて %d フレームになりました",
		"Wrote %s": "%s に書き出しました",
		"Conversion %s completed: %s, %d frames, %d ms in %s": "変換 %s が完了しました: %s, %d フレーム, %d ms (所要 %s)",
		"Conversion %s canceled":                              "変換 %s はキャンセルされました",
		"Conversion %s failed: %s":                            "変換 %s に失敗しました: %s",
		"Output saved to %s":                                  "出力を %s に保存しました",
		"Summary saved to %s":                                 "サマリーを %s に保存しました",
		"Failed to write summary: %v":                         "サマリーの書き出しに失敗しました: %v",
		"Interrupted, shutting down...":                       "中断されました。終了処理中...",

		// Capture stage
		"Capturing %d frames at %dx%d":             "%d フレームを %dx%d でキャプチャ中",
		"Captured %d frames, %d duplicates folded": "%d フレームをキャプチャ、重複 %d フレームをまとめました",
		"Failed to close raster source: %s":        "ラスタソースのクローズに失敗しました: %s",
		"Raster source closed":                     "ラスタソースを閉じました",

		// Encode stage
		"Encoding %d frames losslessly":           "%d フレームをロスレスでエンコード中",
		"Encoding %d frames with up to %d colors": "%d フレームを最大 %d 色でエンコード中",
		"APNG encoded: %s":                        "APNG エンコード完了: %s",

		// Raster sources
		"Opened vector source at %dx%d (scale %d)":      "ベクターソースを %dx%d で開きました (倍率 %d)",
		"Vector renderer skips unsupported feature: %s": "ベクターレンダラーは未対応の機能をスキップします: %s",
		"Opened sequence of %d frames at %dx%d":         "%d フレームの連番画像を %dx%d で開きました",
		"Using Chrome at %s (%s)":                       "Chrome を使用します: %s (%s)",
		"Launching browser in headless mode":            "ヘッドレスモードでブラウザを起動中",
		"Launching browser in visible mode":             "表示モードでブラウザを起動中",
		"Chrome player ready at %dx%d":                  "Chrome プレイヤーの準備完了 (%dx%d)",
		"Failed to remove player page: %s":              "プレイヤーページの削除に失敗しました: %s",
		"Browser closed":                                "ブラウザを閉じました",

		// Serve
		"Listening on %s":                       "%s で待ち受けています",
		"Served %s (%s) in %s":                  "%s (%s) を %s で返しました",
		"Request failed: %v":                    "リクエストの処理に失敗しました: %v",
		"Request rejected: %v":                  "リクエストを拒否しました: %v",
		"Websocket client connected (%d total)": "WebSocket クライアントが接続しました (計 %d)",

		// Stage labels
		"preparing":        "準備中",
		"capturing frames": "フレームをキャプチャ中",
		"encoding APNG":    "APNG をエンコード中",
		"done":             "完了",

		// Error classes
		"The animation file is invalid":      "アニメーションファイルが不正です",
		"The conversion options are invalid": "変換オプションが不正です",
		"Failed to capture frames":           "フレームのキャプチャに失敗しました",
		"Failed to encode APNG":              "APNG のエンコードに失敗しました",
		"Conversion canceled":                "変換はキャンセルされました",
		"Conversion failed":                  "変換に失敗しました",

		// Quality tiers
		"Best quality, largest file":            "最高画質、ファイルサイズ最大",
		"256 colors, nearly lossless":           "256色、ほぼロスレス",
		"128 colors, balanced quality and size": "128色、画質とサイズのバランス",
		"64 colors, smallest file":              "64色、ファイルサイズ最小",
	})
}
