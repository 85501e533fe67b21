package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"

	"github.com/danielyudicarvalho/case-scoring/internal/blobstore"
	"github.com/danielyudicarvalho/case-scoring/internal/configuration"
	"github.com/danielyudicarvalho/case-scoring/internal/domain"
	"github.com/danielyudicarvalho/case-scoring/internal/workflow"
)

type fakeRun struct {
	id    string
	runID string
}

func (r *fakeRun) GetID() string    { return r.id }
func (r *fakeRun) GetRunID() string { return r.runID }
func (r *fakeRun) Get(context.Context, interface{}) error {
	return nil
}
func (r *fakeRun) GetWithOptions(context.Context, interface{}, client.WorkflowRunGetOptions) error {
	return nil
}

type encodedRun struct {
	run domain.WorkflowRun
}

func (e *encodedRun) HasValue() bool { return true }
func (e *encodedRun) Get(valuePtr interface{}) error {
	out, ok := valuePtr.(*domain.WorkflowRun)
	if !ok {
		return fmt.Errorf("unexpected query decode target %T", valuePtr)
	}
	*out = e.run
	return nil
}

type fakeTemporal struct {
	startErr     error
	queryErr     error
	queriedID    string
	queryResult  domain.WorkflowRun
	capturedOpts client.StartWorkflowOptions
	capturedName string
	capturedReq  domain.StartRunRequest
}

func (f *fakeTemporal) ExecuteWorkflow(_ context.Context, options client.StartWorkflowOptions, wf any, args ...any) (client.WorkflowRun, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.capturedOpts = options
	f.capturedName, _ = wf.(string)
	if len(args) == 1 {
		f.capturedReq, _ = args[0].(domain.StartRunRequest)
	}
	return &fakeRun{id: options.ID, runID: "run-1"}, nil
}

func (f *fakeTemporal) QueryWorkflow(_ context.Context, workflowID, _, _ string, _ ...any) (converter.EncodedValue, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.queriedID = workflowID
	return &encodedRun{run: f.queryResult}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeTemporal, blobstore.Store) {
	t.Helper()
	temporal := &fakeTemporal{}
	docs := blobstore.NewMemStore()
	cfg := configuration.Default()
	srv := NewServer(cfg, temporal, docs, slog.Default())
	return srv, temporal, docs
}

func doRequest(srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestStartCase(t *testing.T) {
	srv, temporal, _ := newTestServer(t)

	body := []byte(`{
		"caseId": "case-1",
		"email": "counsel@example.com",
		"documentRef": {"bucket": "case-documents", "key": "uploads/case-1.pdf"},
		"jurisdictionId": "san_diego"
	}`)
	rec := doRequest(srv, http.MethodPost, "/cases", body)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["workflowId"])
	assert.Equal(t, "run-1", resp["runId"])

	assert.Equal(t, workflow.CaseScoringWorkflowName, temporal.capturedName)
	assert.Equal(t, "case-scoring", temporal.capturedOpts.TaskQueue)
	assert.Equal(t, "case-1", temporal.capturedReq.CaseID)
	assert.Equal(t, "san_diego", temporal.capturedReq.JurisdictionID)
}

func TestStartCaseUnwrapsTransportEnvelope(t *testing.T) {
	srv, temporal, _ := newTestServer(t)

	inner := `{"caseId":"case-2","documentRef":{"bucket":"b","key":"k"}}`

	shapes := map[string][]byte{
		"body string":    []byte(fmt.Sprintf(`{"body":%q}`, inner)),
		"Payload string": []byte(fmt.Sprintf(`{"Payload":%q}`, inner)),
		"Payload object": []byte(fmt.Sprintf(`{"Payload":%s}`, inner)),
	}
	for name, outer := range shapes {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodPost, "/cases", outer)
			require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
			assert.Equal(t, "case-2", temporal.capturedReq.CaseID)
		})
	}
}

func TestStartCaseDefaultsJurisdictionFromConfig(t *testing.T) {
	srv, temporal, _ := newTestServer(t)
	srv.cfg.Jurisdiction = "orange_county"

	body := []byte(`{
		"caseId": "case-4",
		"documentRef": {"bucket": "b", "key": "k"}
	}`)
	rec := doRequest(srv, http.MethodPost, "/cases", body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "orange_county", temporal.capturedReq.JurisdictionID)

	// An explicit jurisdiction still wins over the configured one.
	body = []byte(`{
		"caseId": "case-5",
		"documentRef": {"bucket": "b", "key": "k"},
		"jurisdictionId": "san_diego"
	}`)
	rec = doRequest(srv, http.MethodPost, "/cases", body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "san_diego", temporal.capturedReq.JurisdictionID)
}

func TestStartCaseRejectsMissingIdentity(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/cases",
		[]byte(`{"documentRef": {"bucket": "b", "key": "k"}}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing caseId")

	rec = doRequest(srv, http.MethodPost, "/cases", []byte(`{"caseId": "case-1"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing documentRef")

	rec = doRequest(srv, http.MethodPost, "/cases", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartCaseStoresInlineDocument(t *testing.T) {
	srv, temporal, docs := newTestServer(t)

	content := []byte("deposition transcript")
	body, err := json.Marshal(map[string]any{
		"caseId":     "case-3",
		"email":      "counsel@example.com",
		"fileBase64": base64.StdEncoding.EncodeToString(content),
		"fileName":   "deposition.txt",
	})
	require.NoError(t, err)

	rec := doRequest(srv, http.MethodPost, "/cases", body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	ref := temporal.capturedReq.DocumentRef
	assert.Equal(t, "case-documents", ref.Bucket)
	assert.Equal(t, "uploads/case-3/deposition.txt", ref.Key)

	stored, err := docs.Get(context.Background(), ref.Bucket, ref.Key)
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestUploadFlow(t *testing.T) {
	srv, _, docs := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/uploads", []byte(`{"fileName": "brief.pdf"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created["uploadUrl"])
	require.NotEmpty(t, created["key"])

	content := []byte("%PDF-1.4 fake")
	rec = doRequest(srv, http.MethodPut, created["uploadUrl"], content)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	stored, err := docs.Get(context.Background(), created["bucket"], created["key"])
	require.NoError(t, err)
	assert.Equal(t, content, stored)

	// Tokens are single-use.
	rec = doRequest(srv, http.MethodPut, created["uploadUrl"], content)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadTokenExpires(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/uploads", []byte(`{"fileName": "brief.pdf"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	srv.now = func() time.Time {
		return time.Now().Add(srv.cfg.Server.UploadTokenTTL.Std() + time.Minute)
	}

	rec = doRequest(srv, http.MethodPut, created["uploadUrl"], []byte("late"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpiredGrantsSweptOnIssue(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/uploads", []byte(`{"fileName": "stale.pdf"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, srv.grants, 1)

	srv.now = func() time.Time {
		return time.Now().Add(srv.cfg.Server.UploadTokenTTL.Std() + time.Minute)
	}

	// Issuing a fresh grant evicts the expired one instead of piling up.
	rec = doRequest(srv, http.MethodPost, "/uploads", []byte(`{"fileName": "fresh.pdf"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, srv.grants, 1)
}

func TestUploadRejectsBadFileName(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/uploads", []byte(`{"fileName": ""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRun(t *testing.T) {
	srv, temporal, _ := newTestServer(t)
	temporal.queryResult = domain.WorkflowRun{
		RunID: "run-1",
		State: domain.RunStateAggregating,
	}

	rec := doRequest(srv, http.MethodGet, "/runs/case-scoring-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "case-scoring-1", temporal.queriedID)

	var run domain.WorkflowRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, domain.RunStateAggregating, run.State)
}

func TestGetRunNotFound(t *testing.T) {
	srv, temporal, _ := newTestServer(t)
	temporal.queryErr = fmt.Errorf("workflow not found")

	rec := doRequest(srv, http.MethodGet, "/runs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
