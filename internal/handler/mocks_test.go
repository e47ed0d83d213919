package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/socialdesk/internal/aicontent"
	"github.com/hitoshi/socialdesk/internal/analytics"
	"github.com/hitoshi/socialdesk/internal/auth"
	"github.com/hitoshi/socialdesk/internal/businessprofile"
	"github.com/hitoshi/socialdesk/internal/campaign"
	"github.com/hitoshi/socialdesk/internal/connection"
	"github.com/hitoshi/socialdesk/internal/media"
	"github.com/hitoshi/socialdesk/internal/metrics"
	"github.com/hitoshi/socialdesk/internal/middleware"
	"github.com/hitoshi/socialdesk/internal/model"
	"github.com/hitoshi/socialdesk/internal/post"
	"github.com/hitoshi/socialdesk/internal/profile"
)

// --- メトリクスコレクターのモック ---

// recordingCollector はMetricsCollectorのテスト用実装。
// 記録された呼び出しを後から検証できる。
type recordingCollector struct {
	mu             sync.Mutex
	logins         []string // "method:result"
	exchanges      []string // "platform:result"
	connections    []string
	disconnections []string
	statusCodes    []int
}

var _ metrics.MetricsCollector = (*recordingCollector)(nil)

func (c *recordingCollector) RecordLogin(method string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logins = append(c.logins, method+":"+resultStr(success))
}

func (c *recordingCollector) RecordOAuthExchange(platform string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges = append(c.exchanges, platform+":"+resultStr(success))
}

func (c *recordingCollector) RecordOAuthExchangeLatency(platform string, duration time.Duration) {}

func (c *recordingCollector) RecordConnection(platform string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connections = append(c.connections, platform)
}

func (c *recordingCollector) RecordDisconnection(platform string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnections = append(c.disconnections, platform)
}

func (c *recordingCollector) RecordHTTPStatus(statusCode int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusCodes = append(c.statusCodes, statusCode)
}

func resultStr(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// --- サービスモック ---

type mockAuthService struct {
	registerFn             func(ctx context.Context, name, email, password string) (*auth.Session, error)
	loginFn                func(ctx context.Context, email, password string) (*auth.Session, error)
	verifyTokenFn          func(ctx context.Context, token string) (*model.User, error)
	getGoogleLoginURLFn    func() (string, error)
	handleGoogleCallbackFn func(ctx context.Context, code, state string) (*auth.Session, error)
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*auth.Session, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, name, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) VerifyToken(ctx context.Context, token string) (*model.User, error) {
	if m.verifyTokenFn != nil {
		return m.verifyTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockAuthService) GetGoogleLoginURL() (string, error) {
	if m.getGoogleLoginURLFn != nil {
		return m.getGoogleLoginURLFn()
	}
	return "", nil
}

func (m *mockAuthService) HandleGoogleCallback(ctx context.Context, code, state string) (*auth.Session, error) {
	if m.handleGoogleCallbackFn != nil {
		return m.handleGoogleCallbackFn(ctx, code, state)
	}
	return nil, nil
}

type mockConnectionService struct {
	getConnectURLFn  func(userID, platform string) (string, error)
	handleCallbackFn func(ctx context.Context, platform, code, state string) (*model.Connection, error)
	getStatusFn      func(ctx context.Context, userID, platform string) (*connection.Status, error)
	getDetailsFn     func(ctx context.Context, userID, platform string) (*model.Connection, error)
	disconnectFn     func(ctx context.Context, userID, platform string) error
}

var _ ConnectionServiceInterface = (*mockConnectionService)(nil)

func (m *mockConnectionService) GetConnectURL(userID, platform string) (string, error) {
	if m.getConnectURLFn != nil {
		return m.getConnectURLFn(userID, platform)
	}
	return "", nil
}

func (m *mockConnectionService) HandleCallback(ctx context.Context, platform, code, state string) (*model.Connection, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, platform, code, state)
	}
	return nil, nil
}

func (m *mockConnectionService) GetStatus(ctx context.Context, userID, platform string) (*connection.Status, error) {
	if m.getStatusFn != nil {
		return m.getStatusFn(ctx, userID, platform)
	}
	return nil, nil
}

func (m *mockConnectionService) GetDetails(ctx context.Context, userID, platform string) (*model.Connection, error) {
	if m.getDetailsFn != nil {
		return m.getDetailsFn(ctx, userID, platform)
	}
	return nil, nil
}

func (m *mockConnectionService) Disconnect(ctx context.Context, userID, platform string) error {
	if m.disconnectFn != nil {
		return m.disconnectFn(ctx, userID, platform)
	}
	return nil
}

type mockPostService struct {
	createFn       func(ctx context.Context, userID string, input post.CreateInput) (*model.Post, error)
	listFn         func(ctx context.Context, userID string, filter model.PostFilter) ([]*model.Post, error)
	getFn          func(ctx context.Context, userID, id string) (*model.Post, error)
	updateFn       func(ctx context.Context, userID, id string, input post.UpdateInput) (*model.Post, error)
	rescheduleFn   func(ctx context.Context, userID, id string, scheduledAt time.Time) (*model.Post, error)
	listUpcomingFn func(ctx context.Context, userID string) ([]*model.Post, error)
	deleteFn       func(ctx context.Context, userID, id string) error
	bulkDeleteFn   func(ctx context.Context, userID string, ids []string) (int, error)
}

var _ PostServiceInterface = (*mockPostService)(nil)

func (m *mockPostService) Create(ctx context.Context, userID string, input post.CreateInput) (*model.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, input)
	}
	return nil, nil
}

func (m *mockPostService) List(ctx context.Context, userID string, filter model.PostFilter) ([]*model.Post, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, filter)
	}
	return nil, nil
}

func (m *mockPostService) Get(ctx context.Context, userID, id string) (*model.Post, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockPostService) Update(ctx context.Context, userID, id string, input post.UpdateInput) (*model.Post, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, input)
	}
	return nil, nil
}

func (m *mockPostService) Reschedule(ctx context.Context, userID, id string, scheduledAt time.Time) (*model.Post, error) {
	if m.rescheduleFn != nil {
		return m.rescheduleFn(ctx, userID, id, scheduledAt)
	}
	return nil, nil
}

func (m *mockPostService) ListUpcoming(ctx context.Context, userID string) ([]*model.Post, error) {
	if m.listUpcomingFn != nil {
		return m.listUpcomingFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockPostService) Delete(ctx context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

func (m *mockPostService) BulkDelete(ctx context.Context, userID string, ids []string) (int, error) {
	if m.bulkDeleteFn != nil {
		return m.bulkDeleteFn(ctx, userID, ids)
	}
	return 0, nil
}

type mockCampaignService struct {
	createFn    func(ctx context.Context, userID string, input campaign.CreateInput) (*model.Campaign, error)
	listFn      func(ctx context.Context, userID string) ([]*model.Campaign, error)
	getFn       func(ctx context.Context, userID, id string) (*model.Campaign, error)
	updateFn    func(ctx context.Context, userID, id string, input campaign.UpdateInput) (*model.Campaign, error)
	addPostsFn  func(ctx context.Context, userID, id string, postIDs []string) (*model.Campaign, error)
	listPostsFn func(ctx context.Context, userID, id string) ([]*model.Post, error)
	deleteFn    func(ctx context.Context, userID, id string) error
}

var _ CampaignServiceInterface = (*mockCampaignService)(nil)

func (m *mockCampaignService) Create(ctx context.Context, userID string, input campaign.CreateInput) (*model.Campaign, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, input)
	}
	return nil, nil
}

func (m *mockCampaignService) List(ctx context.Context, userID string) ([]*model.Campaign, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockCampaignService) Get(ctx context.Context, userID, id string) (*model.Campaign, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockCampaignService) Update(ctx context.Context, userID, id string, input campaign.UpdateInput) (*model.Campaign, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, input)
	}
	return nil, nil
}

func (m *mockCampaignService) AddPosts(ctx context.Context, userID, id string, postIDs []string) (*model.Campaign, error) {
	if m.addPostsFn != nil {
		return m.addPostsFn(ctx, userID, id, postIDs)
	}
	return nil, nil
}

func (m *mockCampaignService) ListPosts(ctx context.Context, userID, id string) ([]*model.Post, error) {
	if m.listPostsFn != nil {
		return m.listPostsFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockCampaignService) Delete(ctx context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

type mockProfileService struct {
	getFn    func(ctx context.Context, userID string) (*model.User, error)
	updateFn func(ctx context.Context, userID string, input profile.UpdateInput) (*model.User, error)
}

var _ ProfileServiceInterface = (*mockProfileService)(nil)

func (m *mockProfileService) Get(ctx context.Context, userID string) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockProfileService) Update(ctx context.Context, userID string, input profile.UpdateInput) (*model.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, input)
	}
	return nil, nil
}

type mockAnalyticsService struct {
	getReportFn func(ctx context.Context, userID string) (*analytics.Report, error)
}

var _ AnalyticsServiceInterface = (*mockAnalyticsService)(nil)

func (m *mockAnalyticsService) GetReport(ctx context.Context, userID string) (*analytics.Report, error) {
	if m.getReportFn != nil {
		return m.getReportFn(ctx, userID)
	}
	return nil, nil
}

type mockMediaService struct {
	importFn func(ctx context.Context, rawURL string) (*media.ImportResult, error)
}

var _ MediaServiceInterface = (*mockMediaService)(nil)

func (m *mockMediaService) Import(ctx context.Context, rawURL string) (*media.ImportResult, error) {
	if m.importFn != nil {
		return m.importFn(ctx, rawURL)
	}
	return nil, nil
}

type mockBusinessProfileService struct {
	createFn func(ctx context.Context, userID string, input businessprofile.CreateInput) (*model.BusinessProfile, error)
	getFn    func(ctx context.Context, userID string) (*model.BusinessProfile, error)
	updateFn func(ctx context.Context, userID string, input businessprofile.UpdateInput) (*model.BusinessProfile, error)
	deleteFn func(ctx context.Context, userID string) error
}

var _ BusinessProfileServiceInterface = (*mockBusinessProfileService)(nil)

func (m *mockBusinessProfileService) Create(ctx context.Context, userID string, input businessprofile.CreateInput) (*model.BusinessProfile, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, input)
	}
	return nil, nil
}

func (m *mockBusinessProfileService) Get(ctx context.Context, userID string) (*model.BusinessProfile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockBusinessProfileService) Update(ctx context.Context, userID string, input businessprofile.UpdateInput) (*model.BusinessProfile, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, input)
	}
	return nil, nil
}

func (m *mockBusinessProfileService) Delete(ctx context.Context, userID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return nil
}

type mockAIContentService struct {
	generateFn   func(ctx context.Context, input aicontent.GenerateInput) (*aicontent.GeneratedContent, error)
	variationsFn func(ctx context.Context, input aicontent.VariationsInput) ([]aicontent.Variation, error)
	hashtagsFn   func(ctx context.Context, input aicontent.HashtagInput) ([]string, error)
}

var _ AIContentServiceInterface = (*mockAIContentService)(nil)

func (m *mockAIContentService) GenerateInstagramContent(ctx context.Context, input aicontent.GenerateInput) (*aicontent.GeneratedContent, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAIContentService) GenerateVariations(ctx context.Context, input aicontent.VariationsInput) ([]aicontent.Variation, error) {
	if m.variationsFn != nil {
		return m.variationsFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAIContentService) SuggestHashtags(ctx context.Context, input aicontent.HashtagInput) ([]string, error) {
	if m.hashtagsFn != nil {
		return m.hashtagsFn(ctx, input)
	}
	return nil, nil
}

// --- テストヘルパー ---

// authedRequest は認証済みユーザーIDをコンテキストに持つリクエストを生成する。
func authedRequest(t *testing.T, method, target, userID string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

// decodeErrorResponse はエラーレスポンスのボディを読み取る。
func decodeErrorResponse(t *testing.T, resp *http.Response) apiErrorResponse {
	t.Helper()

	var body apiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

func testUser(id string) *model.User {
	return &model.User{
		ID:          id,
		Name:        "Hitoshi",
		Email:       "hitoshi@example.com",
		Role:        model.RoleMember,
		Preferences: model.DefaultPreferences(),
	}
}
