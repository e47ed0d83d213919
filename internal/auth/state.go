package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidState はstateパラメータが不正・期限切れ・使用済みであることを表す。
var ErrInvalidState = errors.New("invalid oauth state")

// stateの用途クレーム。ログイン用と連携用でコールバックのコンテキストを区別する。
const (
	StatePurposeLogin   = "login"
	StatePurposeConnect = "connect"
)

// stateClaims はOAuth stateノンスのクレーム。
// 連携フローではUserIDとPlatformを埋め込み、リダイレクトで戻ってきた
// コールバックをセッションなしで元のユーザーに紐付ける。
type stateClaims struct {
	Purpose  string `json:"purpose"`
	UserID   string `json:"user_id,omitempty"`
	Platform string `json:"platform,omitempty"`
	jwt.RegisteredClaims
}

// ConsumedState は検証済みstateから取り出したコンテキスト。
type ConsumedState struct {
	UserID   string
	Platform string
}

// StateManager は署名付き単回使用のOAuth stateノンスを発行・検証する。
// stateはHS256署名のJWTで、jtiクレームをキーに使用済みノンスを記録する。
// 記録は期限切れ後にバックグラウンドで破棄される。
type StateManager struct {
	secret []byte
	maxAge time.Duration

	mu   sync.Mutex
	used map[string]time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewStateManager はStateManagerを生成する。
// バックグラウンドで使用済みノンス記録のクリーンアップを開始する。
func NewStateManager(secret string, maxAge time.Duration) *StateManager {
	m := &StateManager{
		secret: []byte(secret),
		maxAge: maxAge,
		used:   make(map[string]time.Time),
		stopCh: make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (m *StateManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// Issue は署名付きstateノンスを発行する。
// ログイン用はpurpose=StatePurposeLoginでuserID・platformは空。
// 連携用はpurpose=StatePurposeConnectで認証済みユーザーIDと対象プラットフォームを埋め込む。
func (m *StateManager) Issue(purpose, userID, platform string) (string, error) {
	now := time.Now()
	claims := &stateClaims{
		Purpose:  purpose,
		UserID:   userID,
		Platform: platform,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Consume はstateノンスを検証して消費する。
// 署名不正・期限切れ・用途不一致・再使用のいずれもErrInvalidStateを返す。
// 検証に成功したノンスは使用済みとして記録され、二度と受理されない。
func (m *StateManager) Consume(state, wantPurpose string) (*ConsumedState, error) {
	token, err := jwt.ParseWithClaims(state, &stateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidState
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidState
	}

	claims, ok := token.Claims.(*stateClaims)
	if !ok {
		return nil, ErrInvalidState
	}
	if claims.Purpose != wantPurpose || claims.ID == "" {
		return nil, ErrInvalidState
	}

	// 単回使用の保証: 同じjtiは一度しか受理しない
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, replayed := m.used[claims.ID]; replayed {
		return nil, ErrInvalidState
	}
	m.used[claims.ID] = claims.ExpiresAt.Time

	return &ConsumedState{
		UserID:   claims.UserID,
		Platform: claims.Platform,
	}, nil
}

// UsedCount は記録中の使用済みノンス数を返す。テスト用。
func (m *StateManager) UsedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.used)
}

// cleanupLoop は期限切れの使用済みノンス記録を定期的に破棄する。
// 期限切れのstateは署名検証の段階で拒否されるため、記録を残す必要がない。
func (m *StateManager) cleanupLoop() {
	ticker := time.NewTicker(m.maxAge)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.stopCh:
			return
		}
	}
}

func (m *StateManager) cleanup() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, expiresAt := range m.used {
		if now.After(expiresAt) {
			delete(m.used, id)
		}
	}
}
