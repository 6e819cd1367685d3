// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザーが入力した動画タイトル・説明文などのテキストから
// HTMLタグを取り除き、プレーンテキストとしてAPIに返せる形にする。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力テキストのサニタイズ機能のインターフェース。
type TextSanitizer interface {
	// SanitizeText は全てのHTMLタグを除去したプレーンテキストを返す。
	// script, style要素は中身ごと除去する。同一入力に対して常に同一出力を返す。
	SanitizeText(raw string) string
}

// textSanitizer はbluemondayのStrictPolicyを使用したTextSanitizerの実装。
// bluemonday.Policyは並行利用に対して安全。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxDecodePasses は実体参照の多重エンコードを解く回数の上限。
const maxDecodePasses = 8

// SanitizeText はタグを除去し、bluemondayがエスケープした実体参照を元に戻す。
// JSONとして返すため、&amp; のような表記は残さない。
// 復元した文字列にタグが現れなくなるまで除去と復元を繰り返すため、
// &lt;script&gt; のような実体参照で書かれたタグも除去される。
func (s *textSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}

	text := raw
	for i := 0; i < maxDecodePasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(text))
		if next == text {
			return strings.TrimSpace(text)
		}
		text = next
	}
	// 上限まで復元してもタグが残る入力は、エスケープしたまま返す
	return strings.TrimSpace(s.policy.Sanitize(text))
}
