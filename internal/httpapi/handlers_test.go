package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/PlumyCat/doctrans/internal/config"
	"github.com/PlumyCat/doctrans/internal/drive"
	"github.com/PlumyCat/doctrans/internal/translator"
)

type fakeBlobStore struct {
	sourceBlobs     map[string]bool
	translatedBlobs map[string][]byte

	prepareCalls    []string
	downloadedNames []string
	existsErr       error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		sourceBlobs:     map[string]bool{},
		translatedBlobs: map[string][]byte{},
	}
}

func (f *fakeBlobStore) SourceExists(_ context.Context, blobName string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.sourceBlobs[blobName], nil
}

func (f *fakeBlobStore) TranslatedExists(_ context.Context, blobName string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, exists := f.translatedBlobs[blobName]
	return exists, nil
}

func (f *fakeBlobStore) PrepareTranslationURLs(_ context.Context, blobName, targetLang string) (string, string, error) {
	f.prepareCalls = append(f.prepareCalls, blobName)
	return "https://blobs.example/source/" + blobName,
		"https://blobs.example/translated/" + blobName + "-" + targetLang,
		nil
}

func (f *fakeBlobStore) TranslatedDownloadURL(_ context.Context, blobName string) (string, error) {
	return "https://blobs.example/translated/" + blobName + "?sig=abc", nil
}

func (f *fakeBlobStore) DownloadTranslated(_ context.Context, blobName string) ([]byte, error) {
	f.downloadedNames = append(f.downloadedNames, blobName)
	content, exists := f.translatedBlobs[blobName]
	if !exists {
		return nil, fmt.Errorf("blob %q not found", blobName)
	}
	return content, nil
}

type fakeEngine struct {
	startCalls  int
	startedLang string
	startID     string
	startErr    error
	status      *translator.JobStatus
	statusErr   error
}

func (f *fakeEngine) Start(_ context.Context, _, _, targetLang string) (string, error) {
	f.startCalls++
	f.startedLang = targetLang
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.startID, nil
}

func (f *fakeEngine) Status(_ context.Context, _ string) (*translator.JobStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

type fakeMirror struct {
	enabled     bool
	uploadCalls int
	uploadName  string
	result      *drive.UploadResult
	err         error
}

func (f *fakeMirror) Enabled() bool {
	return f.enabled
}

func (f *fakeMirror) Upload(_ context.Context, _ []byte, fileName, _ string) (*drive.UploadResult, error) {
	f.uploadCalls++
	f.uploadName = fileName
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestServer(cfg *config.Config, blobs *fakeBlobStore, engine *fakeEngine, mirror *fakeMirror) *Server {
	if cfg == nil {
		cfg = &config.Config{
			TranslatorKey:      "key",
			TranslatorEndpoint: "https://engine.example",
			StorageAccountName: "account",
			StorageAccountKey:  "secret",
			MirrorDeadline:     90 * time.Second,
		}
	}
	return &Server{
		cfg:    cfg,
		logger: zerolog.Nop(),
		blobs:  blobs,
		engine: engine,
		mirror: mirror,
	}
}

func newJSONContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandleStartTranslation_AcceptsValidRequest(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	blobs.sourceBlobs["doc.docx"] = true
	engine := &fakeEngine{startID: "job-42"}
	server := newTestServer(nil, blobs, engine, &fakeMirror{})

	c, rec := newJSONContext(http.MethodPost, "/start_translation",
		`{"blob_name":"doc.docx","target_language":"es","user_id":"u1"}`)
	if err := server.handleStartTranslation(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: got %d want %d, body: %s", rec.Code, http.StatusAccepted, rec.Body)
	}

	var resp startTranslationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.TranslationID != "job-42" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Status != "processing" || resp.TargetLanguage != "es" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if engine.startCalls != 1 || engine.startedLang != "es" {
		t.Fatalf("unexpected engine calls: %+v", engine)
	}
	if len(blobs.prepareCalls) != 1 || blobs.prepareCalls[0] != "doc.docx" {
		t.Fatalf("unexpected prepare calls: %v", blobs.prepareCalls)
	}
}

func TestHandleStartTranslation_MissingBlobReturns404(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	engine := &fakeEngine{startID: "job-42"}
	server := newTestServer(nil, blobs, engine, &fakeMirror{})

	c, rec := newJSONContext(http.MethodPost, "/start_translation",
		`{"blob_name":"missing.docx","target_language":"es","user_id":"u1"}`)
	if err := server.handleStartTranslation(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusNotFound)
	}
	if engine.startCalls != 0 {
		t.Fatalf("did not expect submission for missing blob, got %d", engine.startCalls)
	}
}

func TestHandleStartTranslation_RejectsInvalidBodies(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"invalid json", `{"blob_name":`},
		{"missing field", `{"blob_name":"doc.docx","target_language":"es"}`},
		{"blank field", `{"blob_name":"doc.docx","target_language":"  ","user_id":"u1"}`},
		{"wrong type", `{"blob_name":42,"target_language":"es","user_id":"u1"}`},
		{"trailing content", `{"blob_name":"a","target_language":"es","user_id":"u1"} extra`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			blobs := newFakeBlobStore()
			blobs.sourceBlobs["doc.docx"] = true
			engine := &fakeEngine{startID: "job-42"}
			server := newTestServer(nil, blobs, engine, &fakeMirror{})

			c, rec := newJSONContext(http.MethodPost, "/start_translation", tc.body)
			if err := server.handleStartTranslation(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: got %d want %d, body: %s", rec.Code, http.StatusBadRequest, rec.Body)
			}
			if engine.startCalls != 0 {
				t.Fatalf("did not expect submission, got %d", engine.startCalls)
			}
		})
	}
}

func TestHandleStartTranslation_EngineFailureReturns500(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	blobs.sourceBlobs["doc.docx"] = true
	engine := &fakeEngine{startErr: fmt.Errorf("translation engine status 500: boom")}
	server := newTestServer(nil, blobs, engine, &fakeMirror{})

	c, rec := newJSONContext(http.MethodPost, "/start_translation",
		`{"blob_name":"doc.docx","target_language":"es","user_id":"u1"}`)
	if err := server.handleStartTranslation(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestHandleCheckStatus_UnknownJobReturns404(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{statusErr: translator.ErrJobNotFound}
	server := newTestServer(nil, newFakeBlobStore(), engine, &fakeMirror{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/check_status/job-unknown", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("translation_id")
	c.SetParamValues("job-unknown")

	if err := server.handleCheckStatus(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleCheckStatus_ReturnsEngineState(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{status: &translator.JobStatus{
		ID:          "job-7",
		Status:      "Running",
		CreatedAt:   "2026-08-23T10:00:00Z",
		LastUpdated: "2026-08-23T10:01:00Z",
	}}
	engine.status.Summary.Total = 1
	server := newTestServer(nil, newFakeBlobStore(), engine, &fakeMirror{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/check_status/job-7", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("translation_id")
	c.SetParamValues("job-7")

	if err := server.handleCheckStatus(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}

	var resp checkStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TranslationID != "job-7" || resp.Status != "Running" || resp.DocumentsTotal != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleGetResult_DerivesOutputBlobName(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	blobs.translatedBlobs["doc-es.docx"] = []byte("translated")
	server := newTestServer(nil, blobs, &fakeEngine{}, &fakeMirror{})

	c, rec := newJSONContext(http.MethodGet, "/get_result?blob_name=doc.docx&target_language=es", "")
	if err := server.handleGetResult(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d, body: %s", rec.Code, http.StatusOK, rec.Body)
	}

	var resp getResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.DownloadURL, "doc-es.docx") {
		t.Fatalf("unexpected download url: %q", resp.DownloadURL)
	}
	if resp.OneDriveURL != "" {
		t.Fatalf("did not expect a drive url: %q", resp.OneDriveURL)
	}
}

func TestHandleGetResult_MissingTranslationReturns404(t *testing.T) {
	t.Parallel()

	server := newTestServer(nil, newFakeBlobStore(), &fakeEngine{}, &fakeMirror{})

	c, rec := newJSONContext(http.MethodGet, "/get_result?blob_name=doc.docx&target_language=es", "")
	if err := server.handleGetResult(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleGetResult_MirrorsToDriveWhenRequested(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	blobs.translatedBlobs["doc-es.docx"] = []byte("translated")
	mirror := &fakeMirror{
		enabled: true,
		result: &drive.UploadResult{
			WebURL:   "https://drive.example/mirrored",
			FileID:   "file-1",
			FileName: "doc-es_u1_20260823_141503.docx",
		},
	}
	server := newTestServer(nil, blobs, &fakeEngine{}, mirror)

	c, rec := newJSONContext(http.MethodGet, "/get_result?blob_name=doc.docx&target_language=es&user_id=u1", "")
	if err := server.handleGetResult(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}

	var resp getResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OneDriveURL != "https://drive.example/mirrored" {
		t.Fatalf("unexpected drive url: %q", resp.OneDriveURL)
	}
	if mirror.uploadCalls != 1 || mirror.uploadName != "doc-es.docx" {
		t.Fatalf("unexpected mirror calls: %+v", mirror)
	}
	if len(blobs.downloadedNames) != 1 || blobs.downloadedNames[0] != "doc-es.docx" {
		t.Fatalf("unexpected downloads: %v", blobs.downloadedNames)
	}
}

func TestHandleGetResult_MirrorFailureOmitsDriveURL(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	blobs.translatedBlobs["doc-es.docx"] = []byte("translated")
	mirror := &fakeMirror{enabled: true, err: fmt.Errorf("drive upload status 507: quota")}
	server := newTestServer(nil, blobs, &fakeEngine{}, mirror)

	c, rec := newJSONContext(http.MethodGet, "/get_result?blob_name=doc.docx&target_language=es&user_id=u1", "")
	if err := server.handleGetResult(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}
	var resp getResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OneDriveURL != "" {
		t.Fatalf("expected drive url to be omitted, got %q", resp.OneDriveURL)
	}
	if resp.DownloadURL == "" {
		t.Fatalf("expected download url to survive mirror failure")
	}
}

func TestHandleGetResult_DisabledMirrorSkipsDownload(t *testing.T) {
	t.Parallel()

	blobs := newFakeBlobStore()
	blobs.translatedBlobs["doc-es.docx"] = []byte("translated")
	mirror := &fakeMirror{enabled: false}
	server := newTestServer(nil, blobs, &fakeEngine{}, mirror)

	c, rec := newJSONContext(http.MethodGet, "/get_result?blob_name=doc.docx&target_language=es&user_id=u1", "")
	if err := server.handleGetResult(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
	}
	if mirror.uploadCalls != 0 {
		t.Fatalf("did not expect mirror calls, got %d", mirror.uploadCalls)
	}
	if len(blobs.downloadedNames) != 0 {
		t.Fatalf("did not expect blob downloads, got %v", blobs.downloadedNames)
	}
}

func TestHandleGetResult_MissingParamsReturn400(t *testing.T) {
	t.Parallel()

	server := newTestServer(nil, newFakeBlobStore(), &fakeEngine{}, &fakeMirror{})

	c, rec := newJSONContext(http.MethodGet, "/get_result?blob_name=doc.docx", "")
	if err := server.handleGetResult(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleHealth_ListsMissingConfiguration(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		TranslatorEndpoint: "https://engine.example",
		StorageAccountName: "account",
	}
	server := newTestServer(cfg, newFakeBlobStore(), &fakeEngine{}, &fakeMirror{})

	c, rec := newJSONContext(http.MethodGet, "/health", "")
	if err := server.handleHealth(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusServiceUnavailable)
	}
	body := rec.Body.String()
	for _, name := range []string{"TRANSLATOR_KEY", "STORAGE_ACCOUNT_KEY"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in body %q", name, body)
		}
	}
	for _, name := range []string{"TRANSLATOR_ENDPOINT", "STORAGE_ACCOUNT_NAME"} {
		if strings.Contains(body, name) {
			t.Fatalf("did not expect %s in body %q", name, body)
		}
	}
}

func TestHandleHealth_ReportsDriveAvailability(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		enabled bool
		want    string
	}{
		{"flag off", false, "not configured"},
		{"flag on", true, "available"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Config{
				TranslatorKey:         "key",
				TranslatorEndpoint:    "https://engine.example",
				StorageAccountName:    "account",
				StorageAccountKey:     "secret",
				OneDriveClientID:      "id",
				OneDriveClientSecret:  "secret",
				OneDriveTenantID:      "tenant",
				OneDriveUploadEnabled: tc.enabled,
			}
			server := newTestServer(cfg, newFakeBlobStore(), &fakeEngine{}, &fakeMirror{})

			c, rec := newJSONContext(http.MethodGet, "/health", "")
			if err := server.handleHealth(c); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if rec.Code != http.StatusOK {
				t.Fatalf("unexpected status: got %d want %d", rec.Code, http.StatusOK)
			}

			var payload struct {
				Status   string            `json:"status"`
				Services map[string]string `json:"services"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if payload.Status != "healthy" {
				t.Fatalf("unexpected status field: %q", payload.Status)
			}
			if payload.Services["onedrive"] != tc.want {
				t.Fatalf("unexpected onedrive state: got %q want %q", payload.Services["onedrive"], tc.want)
			}
		})
	}
}

func TestHandleLanguagesAndFormats_CountMatches(t *testing.T) {
	t.Parallel()

	server := newTestServer(nil, newFakeBlobStore(), &fakeEngine{}, &fakeMirror{})

	c, rec := newJSONContext(http.MethodGet, "/languages", "")
	if err := server.handleLanguages(c); err != nil {
		t.Fatalf("languages handler returned error: %v", err)
	}
	var languages struct {
		Languages []translator.LanguageOption `json:"languages"`
		Count     int                         `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &languages); err != nil {
		t.Fatalf("decode languages: %v", err)
	}
	if languages.Count == 0 || languages.Count != len(languages.Languages) {
		t.Fatalf("inconsistent language count: %d vs %d entries", languages.Count, len(languages.Languages))
	}

	c, rec = newJSONContext(http.MethodGet, "/formats", "")
	if err := server.handleFormats(c); err != nil {
		t.Fatalf("formats handler returned error: %v", err)
	}
	var formats struct {
		Formats []translator.FormatOption `json:"formats"`
		Count   int                       `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &formats); err != nil {
		t.Fatalf("decode formats: %v", err)
	}
	if formats.Count == 0 || formats.Count != len(formats.Formats) {
		t.Fatalf("inconsistent format count: %d vs %d entries", formats.Count, len(formats.Formats))
	}
}
