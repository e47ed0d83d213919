package aicontent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/socialdesk/internal/model"
)

const (
	defaultTone     = "casual"
	defaultIndustry = "general"

	defaultVariationCount = 3
	maxVariationCount     = 5

	defaultHashtagCount = 15
	maxHashtagCount     = 30
)

// GenerateInput は投稿コンテンツ生成の入力。
type GenerateInput struct {
	Description string
	Tone        string
	Industry    string
}

// GeneratedContent は生成されたキャプションとハッシュタグ。
type GeneratedContent struct {
	Caption     string `json:"caption"`
	Hashtags    string `json:"hashtags"`
	FullContent string `json:"full_content"`
}

// VariationsInput はコンテンツバリエーション生成の入力。
type VariationsInput struct {
	Description string
	Count       int
	Tone        string
}

// Variation は生成されたコンテンツの1バリエーション。
type Variation struct {
	ID          int    `json:"id"`
	Caption     string `json:"caption"`
	Hashtags    string `json:"hashtags"`
	FullContent string `json:"full_content"`
}

// HashtagInput はハッシュタグ提案の入力。
type HashtagInput struct {
	Description string
	Industry    string
	Count       int
}

// Service は投稿コンテンツのAI生成を提供する。
type Service struct {
	client ChatCompleter
}

// NewService はServiceを生成する。
func NewService(client ChatCompleter) *Service {
	return &Service{client: client}
}

// variationStyles はバリエーション生成時に順番に使われるスタイル指定。
var variationStyles = []string{
	"Casual and friendly",
	"Professional and informative",
	"Creative and inspiring",
}

// GenerateInstagramContent はInstagram向けのキャプションとハッシュタグを生成する。
func (s *Service) GenerateInstagramContent(ctx context.Context, input GenerateInput) (*GeneratedContent, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, model.NewValidationError("説明を入力してください")
	}
	if input.Tone == "" {
		input.Tone = defaultTone
	}
	if input.Industry == "" {
		input.Industry = defaultIndustry
	}

	prompt := fmt.Sprintf(`Generate an engaging Instagram post with the following requirements:

Description: %s
Tone: %s
Industry: %s

Please provide:
1. A compelling caption (2-3 sentences) that's engaging and relevant
2. 5-8 relevant hashtags that are popular and trending
3. A call-to-action if appropriate

Format the response as:
CAPTION:
[Your caption here]

HASHTAGS:
#hashtag1 #hashtag2 #hashtag3 #hashtag4 #hashtag5

Make it authentic, engaging, and optimized for Instagram's algorithm.`,
		input.Description, input.Tone, input.Industry)

	content, err := s.client.Complete(ctx,
		"You are a social media expert specializing in Instagram content creation. You create engaging, authentic captions and relevant hashtags that drive engagement.",
		prompt, 500, 0.7)
	if err != nil {
		return nil, s.mapClientError(err)
	}

	caption, hashtags := parseCaptionAndHashtags(content)

	slog.Info("ai content generated", slog.String("kind", "instagram"))

	return &GeneratedContent{
		Caption:     caption,
		Hashtags:    hashtags,
		FullContent: content,
	}, nil
}

// GenerateVariations は同じ説明から複数のコンテンツバリエーションを生成する。
func (s *Service) GenerateVariations(ctx context.Context, input VariationsInput) ([]Variation, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, model.NewValidationError("説明を入力してください")
	}
	if input.Tone == "" {
		input.Tone = defaultTone
	}
	if input.Count <= 0 {
		input.Count = defaultVariationCount
	}
	if input.Count > maxVariationCount {
		input.Count = maxVariationCount
	}

	variations := make([]Variation, 0, input.Count)
	for i := 0; i < input.Count; i++ {
		style := variationStyles[i%len(variationStyles)]
		prompt := fmt.Sprintf(`Generate Instagram content variation %d for: %s

Tone: %s
Style: %s

Provide:
1. A unique caption (different from other variations)
2. 5-8 relevant hashtags

Format as:
CAPTION: [caption]
HASHTAGS: [hashtags]`,
			i+1, input.Description, input.Tone, style)

		content, err := s.client.Complete(ctx,
			"You are a creative social media expert. Generate unique, engaging Instagram content variations.",
			prompt, 300, 0.8)
		if err != nil {
			return nil, s.mapClientError(err)
		}

		caption, hashtags := parseCaptionAndHashtags(content)
		variations = append(variations, Variation{
			ID:          i + 1,
			Caption:     caption,
			Hashtags:    hashtags,
			FullContent: content,
		})
	}

	slog.Info("ai content generated",
		slog.String("kind", "variations"),
		slog.Int("count", len(variations)),
	)

	return variations, nil
}

// SuggestHashtags は説明文に合うハッシュタグを提案する。
func (s *Service) SuggestHashtags(ctx context.Context, input HashtagInput) ([]string, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, model.NewValidationError("説明を入力してください")
	}
	if input.Industry == "" {
		input.Industry = defaultIndustry
	}
	if input.Count <= 0 {
		input.Count = defaultHashtagCount
	}
	if input.Count > maxHashtagCount {
		input.Count = maxHashtagCount
	}

	prompt := fmt.Sprintf(`Generate %d relevant and trending Instagram hashtags for: %s

Industry: %s

Requirements:
- Mix of popular and niche hashtags
- Relevant to the content
- Currently trending
- Appropriate for Instagram

Format as a simple list with # symbols.`,
		input.Count, input.Description, input.Industry)

	content, err := s.client.Complete(ctx,
		"You are a hashtag expert. Generate relevant, trending Instagram hashtags.",
		prompt, 200, 0.6)
	if err != nil {
		return nil, s.mapClientError(err)
	}

	hashtags := make([]string, 0, input.Count)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			hashtags = append(hashtags, line)
		}
		if len(hashtags) == input.Count {
			break
		}
	}

	slog.Info("ai content generated",
		slog.String("kind", "hashtags"),
		slog.Int("count", len(hashtags)),
	)

	return hashtags, nil
}

// mapClientError はクライアントのエラーをAPIエラーに変換する。
// プロバイダー側のエラー詳細はログにのみ残す。
func (s *Service) mapClientError(err error) error {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return model.NewAINotConfiguredError()
	case errors.Is(err, ErrQuotaExceeded):
		slog.Warn("ai quota exceeded", slog.String("error", err.Error()))
		return model.NewAIQuotaExceededError()
	default:
		slog.Error("ai generation failed", slog.String("error", err.Error()))
		return model.NewAIGenerationFailedError()
	}
}

// parseCaptionAndHashtags は生成テキストをCAPTION/HASHTAGSセクションに分解する。
// セクション見出しが見つからない場合は全文をキャプションとして返す。
func parseCaptionAndHashtags(content string) (caption, hashtags string) {
	var captionParts, hashtagParts []string
	section := ""

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		switch {
		case strings.Contains(upper, "CAPTION:"):
			section = "caption"
			// "CAPTION: text" の1行形式にも対応する
			if rest := strings.TrimSpace(trimmed[strings.Index(upper, "CAPTION:")+len("CAPTION:"):]); rest != "" {
				captionParts = append(captionParts, rest)
			}
			continue
		case strings.Contains(upper, "HASHTAGS:"):
			section = "hashtags"
			if rest := strings.TrimSpace(trimmed[strings.Index(upper, "HASHTAGS:")+len("HASHTAGS:"):]); rest != "" {
				hashtagParts = append(hashtagParts, rest)
			}
			continue
		}

		if trimmed == "" {
			continue
		}
		switch section {
		case "caption":
			captionParts = append(captionParts, trimmed)
		case "hashtags":
			hashtagParts = append(hashtagParts, trimmed)
		}
	}

	caption = strings.Join(captionParts, " ")
	hashtags = strings.Join(hashtagParts, " ")

	if caption == "" && hashtags == "" {
		caption = content
	}
	return caption, hashtags
}
