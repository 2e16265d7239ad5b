package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billingdto "github.com/docsphere/docsphere/internal/application/billing/dto"
	billingUsecases "github.com/docsphere/docsphere/internal/application/billing/usecases"
	projectUsecases "github.com/docsphere/docsphere/internal/application/project/usecases"
	queryUsecases "github.com/docsphere/docsphere/internal/application/query/usecases"
	tenantUsecases "github.com/docsphere/docsphere/internal/application/tenant/usecases"
	"github.com/docsphere/docsphere/internal/domain/quota"
	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/interfaces/http/handlers/testutil"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockCreateTenantUC struct {
	cmd    tenantUsecases.CreateTenantCommand
	result *tenantUsecases.CreateTenantResult
	err    error
}

func (m *mockCreateTenantUC) Execute(ctx context.Context, cmd tenantUsecases.CreateTenantCommand) (*tenantUsecases.CreateTenantResult, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockSubscribeUC struct {
	cmd    billingUsecases.SubscribeCommand
	result *billingUsecases.SubscribeResult
	err    error
}

func (m *mockSubscribeUC) Execute(ctx context.Context, cmd billingUsecases.SubscribeCommand) (*billingUsecases.SubscribeResult, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockListPlansUC struct {
	result []billingdto.PlanDTO
	err    error
}

func (m *mockListPlansUC) Execute(ctx context.Context) ([]billingdto.PlanDTO, error) {
	return m.result, m.err
}

type mockGetLimitsUC struct {
	tenantID uuid.UUID
	result   *billingUsecases.GetLimitsResult
	err      error
}

func (m *mockGetLimitsUC) Execute(ctx context.Context, tenantID uuid.UUID) (*billingUsecases.GetLimitsResult, error) {
	m.tenantID = tenantID
	return m.result, m.err
}

type mockCreateProjectUC struct {
	cmd    projectUsecases.CreateProjectCommand
	result *projectUsecases.CreateProjectResult
	err    error
}

func (m *mockCreateProjectUC) Execute(ctx context.Context, cmd projectUsecases.CreateProjectCommand) (*projectUsecases.CreateProjectResult, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockEnsureVectorStoreUC struct {
	ref    projectUsecases.ProjectRef
	result *projectUsecases.EnsureVectorStoreResult
	err    error
}

func (m *mockEnsureVectorStoreUC) Execute(ctx context.Context, ref projectUsecases.ProjectRef) (*projectUsecases.EnsureVectorStoreResult, error) {
	m.ref = ref
	return m.result, m.err
}

type mockUploadDocumentsUC struct {
	cmd    projectUsecases.UploadDocumentsCommand
	called bool
	result *projectUsecases.UploadDocumentsResult
	err    error
}

func (m *mockUploadDocumentsUC) Execute(ctx context.Context, cmd projectUsecases.UploadDocumentsCommand) (*projectUsecases.UploadDocumentsResult, error) {
	m.cmd = cmd
	m.called = true
	return m.result, m.err
}

type mockListFilesUC struct {
	result *projectUsecases.ListFilesResult
	err    error
}

func (m *mockListFilesUC) Execute(ctx context.Context, ref projectUsecases.ProjectRef) (*projectUsecases.ListFilesResult, error) {
	return m.result, m.err
}

type mockRemoveFileUC struct {
	cmd    projectUsecases.RemoveFileCommand
	result *projectUsecases.RemoveFileResult
	err    error
}

func (m *mockRemoveFileUC) Execute(ctx context.Context, cmd projectUsecases.RemoveFileCommand) (*projectUsecases.RemoveFileResult, error) {
	m.cmd = cmd
	return m.result, m.err
}

type mockListMessagesUC struct {
	q      queryUsecases.ListMessagesQuery
	result []queryUsecases.MessageDTO
	err    error
}

func (m *mockListMessagesUC) Execute(ctx context.Context, q queryUsecases.ListMessagesQuery) ([]queryUsecases.MessageDTO, error) {
	m.q = q
	return m.result, m.err
}

type mockAskUC struct {
	cmd    queryUsecases.AskCommand
	result *queryUsecases.AskResult
	err    error
}

func (m *mockAskUC) Execute(ctx context.Context, cmd queryUsecases.AskCommand) (*queryUsecases.AskResult, error) {
	m.cmd = cmd
	return m.result, m.err
}

// =====================================================================
// Test helpers
// =====================================================================

type projectMocks struct {
	create   *mockCreateProjectUC
	ensure   *mockEnsureVectorStoreUC
	upload   *mockUploadDocumentsUC
	list     *mockListFilesUC
	remove   *mockRemoveFileUC
	messages *mockListMessagesUC
}

func newTestProjectHandler() (*ProjectHandler, *projectMocks) {
	m := &projectMocks{
		create:   &mockCreateProjectUC{},
		ensure:   &mockEnsureVectorStoreUC{},
		upload:   &mockUploadDocumentsUC{},
		list:     &mockListFilesUC{},
		remove:   &mockRemoveFileUC{},
		messages: &mockListMessagesUC{},
	}
	h := NewProjectHandler(m.create, m.ensure, m.upload, m.list, m.remove, m.messages, logger.NewNopLogger())
	return h, m
}

func parseError(t *testing.T, body []byte) *testutil.ErrorInfo {
	t.Helper()
	var resp testutil.APIResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

// =====================================================================
// TenantHandler
// =====================================================================

func TestTenantHandler_CreateTenant(t *testing.T) {
	uc := &mockCreateTenantUC{result: &tenantUsecases.CreateTenantResult{TenantID: uuid.NewString(), Name: "Acme"}}
	h := NewTenantHandler(uc, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/tenants", map[string]string{"name": "Acme", "plan_id": "pro"})
	h.CreateTenant(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Acme", uc.cmd.Name)
	assert.Equal(t, "pro", uc.cmd.PlanID)
}

func TestTenantHandler_CreateTenant_MissingName(t *testing.T) {
	uc := &mockCreateTenantUC{}
	h := NewTenantHandler(uc, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/tenants", map[string]string{"plan_id": "pro"})
	h.CreateTenant(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, uc.cmd.PlanID)
}

// =====================================================================
// BillingHandler
// =====================================================================

func TestBillingHandler_Subscribe(t *testing.T) {
	tenantID := uuid.New()
	sub := &mockSubscribeUC{result: &billingUsecases.SubscribeResult{TenantID: tenantID.String(), BillingCycle: "annual"}}
	h := NewBillingHandler(sub, &mockListPlansUC{}, &mockGetLimitsUC{}, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/billing/subscribe", map[string]string{"plan_id": "pro", "cycle": "annual"})
	testutil.SetTenantContext(c, tenantID)
	h.Subscribe(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, billingUsecases.SubscribeCommand{TenantID: tenantID, PlanID: "pro", Cycle: "annual"}, sub.cmd)
}

func TestBillingHandler_Subscribe_RequiresTenant(t *testing.T) {
	h := NewBillingHandler(&mockSubscribeUC{}, &mockListPlansUC{}, &mockGetLimitsUC{}, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/billing/subscribe", map[string]string{"plan_id": "pro"})
	h.Subscribe(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBillingHandler_Subscribe_RateLimited(t *testing.T) {
	sub := &mockSubscribeUC{err: quota.OutcomeRateLimitExceeded.Error()}
	h := NewBillingHandler(sub, &mockListPlansUC{}, &mockGetLimitsUC{}, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/billing/subscribe", map[string]string{"plan_id": "pro", "cycle": "monthly"})
	testutil.SetTenantContext(c, uuid.New())
	h.Subscribe(c)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	e := parseError(t, w.Body.Bytes())
	assert.Equal(t, "rate_limit_exceeded", e.Reason)
	assert.Equal(t, "Rate limit exceeded", e.Message)
}

func TestBillingHandler_ListPlans(t *testing.T) {
	plans := &mockListPlansUC{result: []billingdto.PlanDTO{{ID: "hobby"}, {ID: "pro"}}}
	h := NewBillingHandler(&mockSubscribeUC{}, plans, &mockGetLimitsUC{}, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/plans", nil)
	h.ListPlans(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, plansCacheControl, w.Header().Get("Cache-Control"))

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var got []billingdto.PlanDTO
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Len(t, got, 2)
}

func TestBillingHandler_CurrentLimits_Unsubscribed(t *testing.T) {
	tenantID := uuid.New()
	limits := &mockGetLimitsUC{result: &billingUsecases.GetLimitsResult{Subscribed: false}}
	h := NewBillingHandler(&mockSubscribeUC{}, &mockListPlansUC{}, limits, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/limits/current", nil)
	testutil.SetTenantContext(c, tenantID)
	h.CurrentLimits(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID, limits.tenantID)
	assert.JSONEq(t, `{"success":true,"data":{"subscribed":false}}`, w.Body.String())
}

// =====================================================================
// ProjectHandler
// =====================================================================

func TestProjectHandler_CreateProject(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		wantCode int
	}{
		{"created", projectUsecases.StatusCreated, http.StatusCreated},
		{"exists", projectUsecases.StatusExists, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newTestProjectHandler()
			m.create.result = &projectUsecases.CreateProjectResult{Status: tt.status}
			tenantID := uuid.New()

			c, w := testutil.NewTestContext(http.MethodPost, "/", map[string]string{"name": "docs"})
			c.Request.Header.Set(HeaderIdempotencyKey, "key-1")
			testutil.SetTenantContext(c, tenantID)
			testutil.SetURLParam(c, "tenant_id", tenantID.String())
			h.CreateProject(c)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "key-1", m.create.cmd.IdempotencyKey)
			assert.Equal(t, tenantID, m.create.cmd.ActorTenantID)
		})
	}
}

func TestProjectHandler_CreateProject_QuotaExceeded(t *testing.T) {
	h, m := newTestProjectHandler()
	m.create.err = quota.OutcomeProjectLimitReached.Error()
	tenantID := uuid.New()

	c, w := testutil.NewTestContext(http.MethodPost, "/", map[string]string{"name": "docs"})
	testutil.SetTenantContext(c, tenantID)
	testutil.SetURLParam(c, "tenant_id", tenantID.String())
	h.CreateProject(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	e := parseError(t, w.Body.Bytes())
	assert.Equal(t, "project_limit_reached", e.Reason)
	assert.Equal(t, quota.MsgProjectLimitReached, e.Message)
}

func TestProjectHandler_CreateProject_BadTenantID(t *testing.T) {
	h, _ := newTestProjectHandler()

	c, w := testutil.NewTestContext(http.MethodPost, "/", map[string]string{"name": "docs"})
	testutil.SetTenantContext(c, uuid.New())
	testutil.SetURLParam(c, "tenant_id", "not-a-uuid")
	h.CreateProject(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectHandler_UploadFiles(t *testing.T) {
	h, m := newTestProjectHandler()
	m.upload.result = &projectUsecases.UploadDocumentsResult{Status: "completed", CharsUploaded: 5}
	tenantID, projectID := uuid.New(), uuid.New()

	c, w := testutil.NewMultipartContext("/", "files", map[string]string{"a.txt": "hello"})
	testutil.SetTenantContext(c, tenantID)
	testutil.SetURLParam(c, "tenant_id", tenantID.String())
	testutil.SetURLParam(c, "project_id", projectID.String())
	h.UploadFiles(c)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, m.upload.cmd.Files, 1)
	assert.Equal(t, retrieval.File{Name: "a.txt", ContentType: "application/octet-stream", Data: []byte("hello")}, m.upload.cmd.Files[0])
	assert.Equal(t, projectID, m.upload.cmd.ProjectID)
}

func TestProjectHandler_UploadFiles_NoFilesReachesUseCase(t *testing.T) {
	h, m := newTestProjectHandler()
	m.upload.err = errors.NewValidationError("No files provided")
	tenantID := uuid.New()

	c, w := testutil.NewTestContext(http.MethodPost, "/", nil)
	testutil.SetTenantContext(c, tenantID)
	testutil.SetURLParam(c, "tenant_id", tenantID.String())
	testutil.SetURLParam(c, "project_id", uuid.NewString())
	h.UploadFiles(c)

	assert.True(t, m.upload.called)
	assert.Empty(t, m.upload.cmd.Files)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No files provided", parseError(t, w.Body.Bytes()).Message)
}

func TestProjectHandler_RemoveFile(t *testing.T) {
	h, m := newTestProjectHandler()
	m.remove.result = &projectUsecases.RemoveFileResult{FileID: "file-1", Removed: true, RawDeleted: true}
	tenantID := uuid.New()

	c, w := testutil.NewTestContext(http.MethodDelete, "/", nil)
	testutil.SetTenantContext(c, tenantID)
	testutil.SetURLParam(c, "tenant_id", tenantID.String())
	testutil.SetURLParam(c, "project_id", uuid.NewString())
	testutil.SetURLParam(c, "file_id", "file-1")
	testutil.SetQueryParams(c, map[string]string{"delete_raw": "true"})
	h.RemoveFile(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, m.remove.cmd.DeleteRaw)
	assert.Equal(t, "file-1", m.remove.cmd.FileID)
}

func TestProjectHandler_RemoveFile_BadFlag(t *testing.T) {
	h, _ := newTestProjectHandler()
	tenantID := uuid.New()

	c, w := testutil.NewTestContext(http.MethodDelete, "/", nil)
	testutil.SetTenantContext(c, tenantID)
	testutil.SetURLParam(c, "tenant_id", tenantID.String())
	testutil.SetURLParam(c, "project_id", uuid.NewString())
	testutil.SetURLParam(c, "file_id", "file-1")
	testutil.SetQueryParams(c, map[string]string{"delete_raw": "maybe"})
	h.RemoveFile(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectHandler_ListMessages(t *testing.T) {
	h, m := newTestProjectHandler()
	m.messages.result = []queryUsecases.MessageDTO{{Role: "assistant", Content: "hi"}}
	tenantID := uuid.New()

	c, w := testutil.NewTestContext(http.MethodGet, "/", nil)
	testutil.SetTenantContext(c, tenantID)
	testutil.SetURLParam(c, "tenant_id", tenantID.String())
	testutil.SetURLParam(c, "project_id", uuid.NewString())
	testutil.SetQueryParams(c, map[string]string{"limit": "10"})
	h.ListMessages(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, m.messages.q.Limit)
}

// =====================================================================
// QueryHandler
// =====================================================================

func TestQueryHandler_Ask(t *testing.T) {
	uc := &mockAskUC{result: &queryUsecases.AskResult{
		Answer:     "30 days",
		AnswerHTML: "<p>30 days</p>\n",
		TokensIn:   10,
		TokensOut:  2,
		Citations:  []retrieval.Citation{},
	}}
	h := NewQueryHandler(uc, logger.NewNopLogger())
	tenantID, projectID := uuid.New(), uuid.New()

	c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/query/ask", map[string]string{
		"project_id": projectID.String(),
		"question":   "refund window?",
	})
	c.Request.Header.Set(HeaderIdempotencyKey, "ask-1")
	testutil.SetTenantContext(c, tenantID)
	h.Ask(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, queryUsecases.AskCommand{
		TenantID:       tenantID,
		ProjectID:      projectID,
		Question:       "refund window?",
		IdempotencyKey: "ask-1",
	}, uc.cmd)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.JSONEq(t, `{"answer":"30 days","answer_html":"<p>30 days</p>\n","tokens_in":10,"tokens_out":2,"citations":[]}`, string(resp.Data))
}

func TestQueryHandler_Ask_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantReason string
	}{
		{"message cap", quota.OutcomeMessageCapReached.Error(), http.StatusPaymentRequired, "message_cap_reached"},
		{"duplicate", quota.OutcomeDuplicateRequest.Error(), http.StatusConflict, "duplicate_request"},
		{"no subscription", quota.OutcomeNoActiveSubscription.Error(), http.StatusForbidden, "no_active_subscription"},
		{"plan missing", quota.OutcomePlanDataMissing.Error(), http.StatusInternalServerError, "plan_data_missing"},
		{"upstream", errors.NewUpstreamError("responses request failed", context.DeadlineExceeded), http.StatusBadGateway, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewQueryHandler(&mockAskUC{err: tt.err}, logger.NewNopLogger())

			c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/query/ask", map[string]string{
				"project_id": uuid.NewString(),
				"question":   "q",
			})
			testutil.SetTenantContext(c, uuid.New())
			h.Ask(c)

			assert.Equal(t, tt.wantCode, w.Code)
			e := parseError(t, w.Body.Bytes())
			assert.Equal(t, tt.wantReason, e.Reason)
			assert.Empty(t, e.Details)
		})
	}
}

func TestQueryHandler_Ask_InvalidProjectID(t *testing.T) {
	uc := &mockAskUC{}
	h := NewQueryHandler(uc, logger.NewNopLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/query/ask", map[string]string{"project_id": "nope", "question": "q"})
	testutil.SetTenantContext(c, uuid.New())
	h.Ask(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, uc.cmd.Question)
}

// =====================================================================
// HealthHandler
// =====================================================================

func TestHealthHandler(t *testing.T) {
	up := Dependency{Name: "database", Ping: func(context.Context) error { return nil }}
	down := Dependency{Name: "redis", Ping: func(context.Context) error { return context.DeadlineExceeded }}

	c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
	NewHealthHandler(logger.NewNopLogger(), up).Health(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = testutil.NewTestContext(http.MethodGet, "/health", nil)
	NewHealthHandler(logger.NewNopLogger(), up, down).Health(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"unavailable"`)
}
