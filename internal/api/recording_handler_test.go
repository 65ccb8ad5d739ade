package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"edupulse/lms-backend/internal/domain"
	"edupulse/lms-backend/internal/storage"
	"edupulse/lms-backend/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRecordingService struct {
	readyErr      error
	uploadResult  *upload.ResultSet
	uploadErr     error
	verifyRecords []domain.VerificationRecord
	verifyErr     error

	uploadCalls int
	gotRequest  upload.Request
}

func (f *fakeRecordingService) StorageReady() error {
	return f.readyErr
}

func (f *fakeRecordingService) UploadRecordings(_ context.Context, req upload.Request) (*upload.ResultSet, error) {
	f.uploadCalls++
	f.gotRequest = req
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadResult, nil
}

func (f *fakeRecordingService) VerifyRecordings(_ context.Context, keys []string) ([]domain.VerificationRecord, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyRecords, nil
}

func newTestRouter(svc *fakeRecordingService, memoryLimit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewRecordingHandler(svc, memoryLimit, zap.NewNop())
	router.POST("/recordings", h.UploadSessionRecordings)
	router.POST("/recordings/verify", h.VerifyRecordings)
	return router
}

// multipartBody builds an upload form with one video part per fileName.
func multipartBody(t *testing.T, fields map[string]string, fileContents map[string][]byte, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	for fileName, content := range fileContents {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="videos"; filename="`+fileName+`"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func defaultFields() map[string]string {
	return map[string]string{
		"studentIds": `["s1","s2"]`,
		"batchId":    "b1",
		"sessionNo":  "3",
	}
}

func TestUploadSessionRecordingsSuccess(t *testing.T) {
	svc := &fakeRecordingService{
		uploadResult: &upload.ResultSet{
			Videos: []domain.UploadOutcome{
				{S3Key: "videos/b1/s1(jane_obrien)/session-3/1-abcd1234.mp4", Status: domain.UploadStatusSucceeded},
				{S3Key: "videos/b1/s2(john_smith)/session-3/1-efgh5678.mp4", Status: domain.UploadStatusSucceeded},
			},
			FolderStructure: "videos/b1/[student_id]([student_name])/session-3/",
		},
	}
	router := newTestRouter(svc, 8<<20)

	body, contentType := multipartBody(t, defaultFields(), map[string][]byte{"lecture.mp4": []byte("recording")}, "video/mp4")
	req := httptest.NewRequest(http.MethodPost, "/recordings", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Videos          []domain.UploadOutcome `json:"videos"`
			FolderStructure string                 `json:"folderStructure"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Len(t, resp.Data.Videos, 2)
	assert.Equal(t, "videos/b1/[student_id]([student_name])/session-3/", resp.Data.FolderStructure)

	// The service saw a normalized, buffered request.
	require.Equal(t, 1, svc.uploadCalls)
	assert.Equal(t, []string{"s1", "s2"}, svc.gotRequest.StudentIDs)
	require.Len(t, svc.gotRequest.Files, 1)
	assert.False(t, svc.gotRequest.Files[0].DiskBacked())
	assert.Equal(t, []byte("recording"), svc.gotRequest.Files[0].Data)
}

func TestUploadSessionRecordingsSpoolsLargeFiles(t *testing.T) {
	svc := &fakeRecordingService{uploadResult: &upload.ResultSet{}}
	router := newTestRouter(svc, 4) // tiny cutover so the file spools to disk

	body, contentType := multipartBody(t, defaultFields(), map[string][]byte{"big.mp4": []byte("larger than four bytes")}, "video/mp4")
	req := httptest.NewRequest(http.MethodPost, "/recordings", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.gotRequest.Files, 1)
	src := svc.gotRequest.Files[0]
	assert.True(t, src.DiskBacked())

	data, err := os.ReadFile(src.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("larger than four bytes"), data)
	os.Remove(src.Path) // the real pipeline owns cleanup; the fake does not
}

func TestUploadSessionRecordingsValidation(t *testing.T) {
	tests := []struct {
		name        string
		fields      map[string]string
		files       map[string][]byte
		contentType string
		wantMsg     string
	}{
		{
			name:        "no files",
			fields:      defaultFields(),
			files:       nil,
			contentType: "video/mp4",
			wantMsg:     "no video files",
		},
		{
			name:        "non-video mime",
			fields:      defaultFields(),
			files:       map[string][]byte{"notes.pdf": []byte("pdf")},
			contentType: "application/pdf",
			wantMsg:     "unsupported content type",
		},
		{
			name: "missing studentIds",
			fields: map[string]string{
				"batchId":   "b1",
				"sessionNo": "3",
			},
			files:       map[string][]byte{"lecture.mp4": []byte("x")},
			contentType: "video/mp4",
			wantMsg:     "studentIds is required",
		},
		{
			name: "malformed studentIds json",
			fields: map[string]string{
				"studentIds": `["s1"`,
				"batchId":    "b1",
				"sessionNo":  "3",
			},
			files:       map[string][]byte{"lecture.mp4": []byte("x")},
			contentType: "video/mp4",
			wantMsg:     "not a valid JSON array",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRecordingService{}
			router := newTestRouter(svc, 8<<20)

			body, contentType := multipartBody(t, tt.fields, tt.files, tt.contentType)
			req := httptest.NewRequest(http.MethodPost, "/recordings", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
			assert.Zero(t, svc.uploadCalls, "validation failures must not reach the pipeline")
		})
	}
}

func TestUploadSessionRecordingsStorageUnavailable(t *testing.T) {
	svc := &fakeRecordingService{readyErr: storage.ErrUnavailable}
	router := newTestRouter(svc, 8<<20)

	body, contentType := multipartBody(t, defaultFields(), map[string][]byte{"lecture.mp4": []byte("x")}, "video/mp4")
	req := httptest.NewRequest(http.MethodPost, "/recordings", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, svc.uploadCalls)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp["status"])
}

func TestUploadSessionRecordingsTransferFailure(t *testing.T) {
	svc := &fakeRecordingService{
		uploadErr: &storage.TransferError{
			Key: "videos/b1/s2(john_smith)/session-3/1-efgh5678.mp4",
			Err: errors.New("connection reset"),
		},
	}
	router := newTestRouter(svc, 8<<20)

	body, contentType := multipartBody(t, defaultFields(), map[string][]byte{"lecture.mp4": []byte("x")}, "video/mp4")
	req := httptest.NewRequest(http.MethodPost, "/recordings", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// The response names the offending key and carries no videos list.
	assert.Contains(t, rec.Body.String(), "videos/b1/s2(john_smith)")
	assert.NotContains(t, rec.Body.String(), `"videos"`)
}

func TestVerifyRecordings(t *testing.T) {
	svc := &fakeRecordingService{
		verifyRecords: []domain.VerificationRecord{
			{S3Key: "k1", Size: 42, ETag: "etag1", Verified: true},
			{S3Key: "k2", Verified: false, Error: "object not found in storage"},
		},
	}
	router := newTestRouter(svc, 8<<20)

	body := bytes.NewBufferString(`{"videos":[{"s3Key":"k1"},{"s3Key":"k2"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/recordings/verify", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			VerifiedVideos      []domain.VerificationRecord `json:"verifiedVideos"`
			FailedVerifications []domain.VerificationRecord `json:"failedVerifications"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Data.VerifiedVideos, 1)
	assert.Equal(t, "k1", resp.Data.VerifiedVideos[0].S3Key)
	require.Len(t, resp.Data.FailedVerifications, 1)
	assert.Equal(t, "k2", resp.Data.FailedVerifications[0].S3Key)
}

func TestVerifyRecordingsBadBody(t *testing.T) {
	router := newTestRouter(&fakeRecordingService{}, 8<<20)

	req := httptest.NewRequest(http.MethodPost, "/recordings/verify", bytes.NewBufferString(`{"videos":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
