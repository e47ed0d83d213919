// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は投稿の説明文・キャプション・ハッシュタグを
// サニタイズし、XSS攻撃などのセキュリティリスクからユーザーを保護する。
// 投稿テキストはSNS各社のAPIへそのまま渡されるプレーンテキストであり、
// HTMLタグを含む必要がないため、bluemondayのStrictPolicyで全タグを除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService は投稿テキストのサニタイズ機能のインターフェースを定義する。
// 投稿・キャンペーンの保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize はテキストからHTMLタグと危険な構造をすべて除去する。
	// script, iframe, styleタグおよびon*イベント属性を含む全タグが除去され、
	// HTMLエンティティはそのまま保持される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(text string) string

	// SanitizeHashtags はハッシュタグ文字列をサニタイズする。
	// タグ除去に加えて前後の空白を取り除く。
	SanitizeHashtags(hashtags string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、入力中のHTMLはすべて除去される。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はテキストからHTMLタグをすべて除去する。
func (s *contentSanitizer) Sanitize(text string) string {
	return s.policy.Sanitize(text)
}

// SanitizeHashtags はハッシュタグ文字列をサニタイズし、前後の空白を除去する。
func (s *contentSanitizer) SanitizeHashtags(hashtags string) string {
	return strings.TrimSpace(s.policy.Sanitize(hashtags))
}
