package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
	"github.com/danielyudicarvalho/case-scoring/internal/envelope"
	"github.com/danielyudicarvalho/case-scoring/internal/workflow"
)

// maxBodyBytes bounds request bodies; base64-encoded documents dominate.
const maxBodyBytes = 32 << 20

// startExtras carries the start-only fields that ride alongside the
// canonical context fragment: an inline document and a jurisdiction
// override.
type startExtras struct {
	JurisdictionID string `json:"jurisdictionId"`
	FileBase64     string `json:"fileBase64"`
	FileName       string `json:"fileName"`
}

// handleStartCase accepts a scoring request and starts a workflow run. The
// request is normalized like any other stage input: transport envelopes are
// stripped and the canonical fragment extracted, with the start-only fields
// read off the same unwrapped payload. The document is referenced by
// documentRef, or supplied inline as fileBase64 and stored before the run
// starts.
func (s *Server) handleStartCase(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	raw, err := envelope.Unwrap(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}
	fragment, err := envelope.Normalize(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}
	var extras startExtras
	if err := json.Unmarshal(raw, &extras); err != nil {
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	if extras.FileBase64 != "" {
		ref, err := s.storeInlineDocument(r, fragment.CaseID, extras)
		if err != nil {
			s.logger.Error("inline document store failed", "case_id", fragment.CaseID, "error", err)
			writeError(w, http.StatusBadRequest, "invalid inline document")
			return
		}
		fragment.DocumentRef = ref
	}

	if err := envelope.RequireIdentity(fragment); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jurisdiction := extras.JurisdictionID
	if jurisdiction == "" {
		jurisdiction = s.cfg.Jurisdiction
	}

	req := domain.StartRunRequest{
		CaseID:         fragment.CaseID,
		Email:          fragment.Email,
		DocumentRef:    fragment.DocumentRef,
		JurisdictionID: jurisdiction,
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid start request: %v", err))
		return
	}

	options := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("case-scoring-%s-%s", req.CaseID, uuid.New().String()[:8]),
		TaskQueue: s.cfg.Temporal.TaskQueue,
	}
	run, err := s.temporal.ExecuteWorkflow(r.Context(), options, workflow.CaseScoringWorkflowName, req)
	if err != nil {
		s.logger.Error("workflow start failed", "case_id", req.CaseID, "error", err)
		writeError(w, http.StatusBadGateway, "could not start scoring run")
		return
	}

	s.logger.Info("scoring run started",
		"case_id", req.CaseID,
		"workflow_id", run.GetID(),
		"run_id", run.GetRunID())

	writeJSON(w, http.StatusAccepted, map[string]string{
		"workflowId": run.GetID(),
		"runId":      run.GetRunID(),
	})
}

// storeInlineDocument decodes an inline base64 document and stores it under
// the case's upload prefix.
func (s *Server) storeInlineDocument(r *http.Request, caseID string, extras startExtras) (domain.DocumentRef, error) {
	if caseID == "" {
		return domain.DocumentRef{}, domain.ErrMissingCaseID
	}
	data, err := base64.StdEncoding.DecodeString(extras.FileBase64)
	if err != nil {
		return domain.DocumentRef{}, fmt.Errorf("decode inline document: %w", err)
	}
	name := path.Base(extras.FileName)
	if name == "" || name == "." || name == "/" {
		name = "document"
	}
	ref := domain.DocumentRef{
		Bucket: s.cfg.Storage.DocumentsBucket,
		Key:    fmt.Sprintf("uploads/%s/%s", caseID, name),
	}
	if err := s.docs.Put(r.Context(), ref.Bucket, ref.Key, data); err != nil {
		return domain.DocumentRef{}, fmt.Errorf("store inline document: %w", err)
	}
	return ref, nil
}

// handleCreateUpload issues a one-time upload slot for a case document.
func (s *Server) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName string `json:"fileName"`
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || jsonUnmarshalStrictWhitespace(body, &req) != nil {
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	name := path.Base(strings.TrimSpace(req.FileName))
	if name == "" || name == "." || name == "/" {
		writeError(w, http.StatusBadRequest, "fileName is required")
		return
	}

	key := fmt.Sprintf("uploads/%s/%s", uuid.New().String(), name)
	token, expires := s.issueGrant(key)

	writeJSON(w, http.StatusCreated, map[string]string{
		"uploadUrl": "/uploads/" + token,
		"bucket":    s.cfg.Storage.DocumentsBucket,
		"key":       key,
		"expiresAt": expires.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// handlePutUpload stores the document body for a previously issued slot.
// Tokens are single-use and expire.
func (s *Server) handlePutUpload(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	key, ok := s.consumeGrant(token)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown or expired upload token")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty upload body")
		return
	}
	if err := s.docs.Put(r.Context(), s.cfg.Storage.DocumentsBucket, key, data); err != nil {
		s.logger.Error("upload store failed", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "could not store document")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"bucket": s.cfg.Storage.DocumentsBucket,
		"key":    key,
	})
}

// handleGetRun returns the live run record via the workflow's state query.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	workflowID := r.PathValue("id")
	if workflowID == "" {
		writeError(w, http.StatusBadRequest, "run identifier is required")
		return
	}

	encoded, err := s.temporal.QueryWorkflow(r.Context(), workflowID, "", workflow.RunStateQuery)
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	var run domain.WorkflowRun
	if err := encoded.Get(&run); err != nil {
		s.logger.Error("run state decode failed", "workflow_id", workflowID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not decode run state")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// jsonUnmarshalStrictWhitespace unmarshals while treating an empty or
// whitespace-only body as malformed instead of a silent zero value.
func jsonUnmarshalStrictWhitespace(data []byte, v any) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(data, v)
}
