package session

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	messageRunCompletedTitle = ":page_facing_up:  **字幕の生成が完了しました。**"
	messageRunFailedTitle    = ":warning: **字幕の生成中にエラーが発生しました。**"
	messageRunCanceledTitle  = ":pause_button:  **字幕の生成を中止しました。**"
	messagePartialAttachment = "-# 途中までの字幕を添付します。"
	messageNoSubtitles       = "-# 字幕として出力できる発話は検出されませんでした。"
	messagePoweredByLine     = "-# *Powered by Jimakun*"

	messageSummaryFormat = "ファイル：%s\n音声の長さ：%s\n字幕数：%d"
	messageErrorFormat   = "エラー：%s"
)

func runSummaryMessage(sourcePath string, audioDuration time.Duration, count int, runErr error, canceled bool) string {
	title := messageRunCompletedTitle
	switch {
	case canceled:
		title = messageRunCanceledTitle
	case runErr != nil:
		title = messageRunFailedTitle
	}

	lines := []string{
		title,
		fmt.Sprintf(messageSummaryFormat, filepath.Base(sourcePath), formatElapsedHMS(audioDuration), count),
	}
	if runErr != nil && !canceled {
		lines = append(lines, fmt.Sprintf(messageErrorFormat, runErr.Error()))
	}
	switch {
	case count == 0:
		lines = append(lines, messageNoSubtitles)
	case runErr != nil:
		lines = append(lines, messagePartialAttachment)
	}
	lines = append(lines, messagePoweredByLine)
	return strings.Join(lines, "\n")
}
