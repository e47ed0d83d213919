// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, provider, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeEmailTaken           = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken         = "INVALID_TOKEN"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeMissingAuthCode      = "MISSING_AUTH_CODE"
	ErrCodeInvalidOAuthState    = "INVALID_OAUTH_STATE"
	ErrCodeProviderExchange     = "PROVIDER_EXCHANGE_FAILED"
	ErrCodeProviderIdentity     = "PROVIDER_IDENTITY_FAILED"
	ErrCodeUnsupportedPlatform  = "UNSUPPORTED_PLATFORM"
	ErrCodeConnectionNotFound   = "CONNECTION_NOT_FOUND"
	ErrCodePostNotFound         = "POST_NOT_FOUND"
	ErrCodeCampaignNotFound     = "CAMPAIGN_NOT_FOUND"
	ErrCodeInvalidMediaURL      = "INVALID_MEDIA_URL"
	ErrCodeMediaBlocked         = "MEDIA_URL_BLOCKED"

	ErrCodeBusinessProfileNotFound = "BUSINESS_PROFILE_NOT_FOUND"
	ErrCodeBusinessProfileExists   = "BUSINESS_PROFILE_EXISTS"

	ErrCodeAINotConfigured    = "AI_NOT_CONFIGURED"
	ErrCodeAIQuotaExceeded    = "AI_QUOTA_EXCEEDED"
	ErrCodeAIGenerationFailed = "AI_GENERATION_FAILED"
)

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEmailTakenError は登録済みメールアドレスエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレス未登録とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "認証情報を確認して再度お試しください。",
	}
}

// NewInvalidTokenError は無効・期限切れトークンエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "認証トークンが無効または期限切れです。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewMissingAuthCodeError はコールバックに認可コードが無い場合のエラーを生成する。
func NewMissingAuthCodeError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingAuthCode,
		Message:  "認可コードが指定されていません。",
		Category: "validation",
		Action:   "認証フローを最初からやり直してください。",
	}
}

// NewInvalidOAuthStateError はstateパラメータの検証失敗エラーを生成する。
func NewInvalidOAuthStateError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidOAuthState,
		Message:  "stateパラメータの検証に失敗しました。",
		Category: "auth",
		Action:   "認証フローを最初からやり直してください。",
	}
}

// NewProviderExchangeError はプロバイダーとのトークン交換失敗エラーを生成する。
// プロバイダー側のエラー詳細はサーバーログにのみ記録し、レスポンスには含めない。
func NewProviderExchangeError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeProviderExchange,
		Message:  fmt.Sprintf("%s との認証に失敗しました。", provider),
		Category: "provider",
		Action:   "しばらく待ってから再度サインインをお試しください。",
	}
}

// NewProviderIdentityError はプロバイダーからのプロフィール取得失敗エラーを生成する。
func NewProviderIdentityError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeProviderIdentity,
		Message:  fmt.Sprintf("%s からのアカウント情報取得に失敗しました。", provider),
		Category: "provider",
		Action:   "しばらく待ってから再度サインインをお試しください。",
	}
}

// NewUnsupportedPlatformError は未対応プラットフォーム指定エラーを生成する。
func NewUnsupportedPlatformError(platform string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedPlatform,
		Message:  fmt.Sprintf("未対応のプラットフォームです: %s", platform),
		Category: "validation",
		Action:   "instagram、facebook、linkedin のいずれかを指定してください。",
	}
}

// NewConnectionNotFoundError は連携未接続エラーを生成する。
func NewConnectionNotFoundError(platform Platform) *APIError {
	return &APIError{
		Code:     ErrCodeConnectionNotFound,
		Message:  fmt.Sprintf("%s アカウントは連携されていません。", platform),
		Category: "validation",
		Action:   "先にアカウント連携を行ってください。",
	}
}

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "validation",
		Action:   "投稿IDを確認してください。",
	}
}

// NewCampaignNotFoundError はキャンペーン未検出エラーを生成する。
func NewCampaignNotFoundError(campaignID string) *APIError {
	return &APIError{
		Code:     ErrCodeCampaignNotFound,
		Message:  fmt.Sprintf("指定されたキャンペーンが見つかりません: %s", campaignID),
		Category: "validation",
		Action:   "キャンペーンIDを確認してください。",
	}
}

// NewInvalidMediaURLError は無効なメディアURLエラーを生成する。
func NewInvalidMediaURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidMediaURL,
		Message:  fmt.Sprintf("無効なメディアURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewBusinessProfileNotFoundError は事業者プロフィール未作成エラーを生成する。
func NewBusinessProfileNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeBusinessProfileNotFound,
		Message:  "事業者プロフィールが作成されていません。",
		Category: "validation",
		Action:   "先に事業者プロフィールを作成してください。",
	}
}

// NewBusinessProfileExistsError は事業者プロフィール重複作成エラーを生成する。
// プロフィールはユーザーごとに1件までに制限される。
func NewBusinessProfileExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeBusinessProfileExists,
		Message:  "事業者プロフィールは既に作成されています。",
		Category: "validation",
		Action:   "既存のプロフィールを更新してください。",
	}
}

// NewAINotConfiguredError はAIコンテンツ生成が未設定の場合のエラーを生成する。
func NewAINotConfiguredError() *APIError {
	return &APIError{
		Code:     ErrCodeAINotConfigured,
		Message:  "AIコンテンツ生成が設定されていません。",
		Category: "system",
		Action:   "管理者にAPIキーの設定を依頼してください。",
	}
}

// NewAIQuotaExceededError はAI APIのクォータ超過エラーを生成する。
func NewAIQuotaExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeAIQuotaExceeded,
		Message:  "AI APIの利用上限に達しました。",
		Category: "provider",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewAIGenerationFailedError はAIコンテンツ生成失敗エラーを生成する。
// プロバイダー側のエラー詳細はサーバーログにのみ記録する。
func NewAIGenerationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAIGenerationFailed,
		Message:  "コンテンツの生成に失敗しました。",
		Category: "provider",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewMediaBlockedError はセキュリティポリシーによるメディアURLブロックエラーを生成する。
func NewMediaBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeMediaBlocked,
		Message:  "セキュリティポリシーにより、指定されたメディアURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}
