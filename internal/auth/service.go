package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/repository"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 6

// WelcomeMailer は登録完了メールの送信インターフェース。
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

// Session は発行済みセッショントークンとユーザーの組。
type Session struct {
	Token string
	User  *model.User
}

// Service は認証に関するビジネスロジックを提供する。
// パスワード認証とGoogle OAuthログインの両方を扱い、
// どちらの経路でも同一形式のセッショントークンを発行する。
type Service struct {
	google   OAuthProvider
	userRepo repository.UserRepository
	states   *StateManager
	issuer   *TokenIssuer
	cache    *TokenCache
	mailer   WelcomeMailer // nilの場合メール送信をスキップ
}

// NewService はServiceを生成する。
func NewService(
	google OAuthProvider,
	userRepo repository.UserRepository,
	states *StateManager,
	issuer *TokenIssuer,
	cache *TokenCache,
	mailer WelcomeMailer,
) *Service {
	return &Service{
		google:   google,
		userRepo: userRepo,
		states:   states,
		issuer:   issuer,
		cache:    cache,
		mailer:   mailer,
	}
}

// Register はパスワード認証のユーザーを登録し、セッションを発行する。
// メールアドレスは小文字に正規化して保存する。
// 既に同じメールアドレスのユーザーが存在する場合はEmailTakenエラーを返す。
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if err := validateRegistration(name, email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: &hashStr,
		Role:         model.RoleMember,
		Preferences:  model.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	s.sendWelcomeMail(user)

	return s.createSession(user)
}

// Login はメールアドレスとパスワードでユーザーを認証し、セッションを発行する。
// ユーザーが存在しない場合とパスワード不一致の場合は同一のエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !user.HasPassword() {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return s.createSession(user)
}

// VerifyToken はセッショントークンを検証し、対応するユーザーを返す。
// トークン不正・期限切れ・ユーザー不在のいずれも認証エラーとして扱う。
func (s *Service) VerifyToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.issuer.Verify(tokenString)
	if err != nil {
		return nil, model.NewInvalidTokenError()
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// GetGoogleLoginURL はGoogleログインの認可URLを生成する。
// stateには単回使用の署名付きノンスを使用する。
func (s *Service) GetGoogleLoginURL() (string, error) {
	state, err := s.states.Issue(StatePurposeLogin, "", "")
	if err != nil {
		return "", fmt.Errorf("failed to issue state: %w", err)
	}
	return s.google.GetLoginURL(state), nil
}

// HandleGoogleCallback はGoogleログインのコールバックを処理し、セッションを発行する。
// stateの検証はトークン交換より前に行い、検証に失敗した場合は交換を行わない。
//
// アカウントの照合はメールアドレスで行う:
//   - 同じメールアドレスのユーザーが存在すればそのアカウントにGoogle IDを紐付ける
//     （パスワード認証で登録済みのユーザーはGoogleログインも使えるようになる）
//   - 存在しなければGoogleユーザーとして新規作成する
func (s *Service) HandleGoogleCallback(ctx context.Context, code, state string) (*Session, error) {
	if _, err := s.states.Consume(state, StatePurposeLogin); err != nil {
		return nil, model.NewInvalidOAuthStateError()
	}
	if code == "" {
		return nil, model.NewMissingAuthCodeError()
	}

	token, err := s.google.ExchangeCode(ctx, code)
	if err != nil {
		slog.Error("google token exchange failed", slog.String("error", err.Error()))
		return nil, model.NewProviderExchangeError("google")
	}

	identity, err := s.google.FetchIdentity(ctx, token.AccessToken)
	if err != nil {
		slog.Error("google identity fetch failed", slog.String("error", err.Error()))
		return nil, model.NewProviderIdentityError("google")
	}
	if identity.Email == "" {
		return nil, model.NewProviderIdentityError("google")
	}

	user, err := s.reconcileGoogleUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	// プロバイダートークンはキャッシュに保持し、再ログインで上書きされる
	s.cache.Put(user.ID, *token)

	return s.createSession(user)
}

// reconcileGoogleUser はGoogleアカウントをローカルユーザーに照合する。
func (s *Service) reconcileGoogleUser(ctx context.Context, identity *ExternalIdentity) (*model.User, error) {
	email := normalizeEmail(identity.Email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user != nil {
		// 既存アカウントへの紐付け。パスワードハッシュには触れない。
		if err := s.userRepo.AttachGoogleID(ctx, user.ID, identity.ExternalID); err != nil {
			return nil, fmt.Errorf("failed to attach google id: %w", err)
		}
		user.GoogleID = &identity.ExternalID
		user.IsGoogleUser = true

		slog.Info("existing user logged in via google",
			slog.String("user_id", user.ID),
		)
		return user, nil
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = email
	}

	now := time.Now()
	user = &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		GoogleID:     &identity.ExternalID,
		IsGoogleUser: true,
		Role:         model.RoleMember,
		Preferences:  model.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create google user: %w", err)
	}

	slog.Info("new user created via google",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	s.sendWelcomeMail(user)

	return user, nil
}

// createSession はユーザーのセッショントークンを発行する。
func (s *Service) createSession(user *model.User) (*Session, error) {
	token, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

// sendWelcomeMail は登録完了メールを非同期に送信する。
// 送信失敗は登録処理を妨げず、ログに記録するだけにとどめる。
func (s *Service) sendWelcomeMail(user *model.User) {
	if s.mailer == nil {
		return
	}
	go func(to, name string) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.SendWelcome(ctx, to, name); err != nil {
			slog.Warn("failed to send welcome mail",
				slog.String("email", to),
				slog.String("error", err.Error()),
			)
		}
	}(user.Email, user.Name)
}

// normalizeEmail はメールアドレスを小文字・前後空白なしに正規化する。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateRegistration は登録リクエストの内容を検証する。
func validateRegistration(name, email, password string) error {
	if name == "" {
		return model.NewValidationError("名前を入力してください")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	if len(password) < minPasswordLength {
		return model.NewValidationError("パスワードは6文字以上で入力してください")
	}
	return nil
}
