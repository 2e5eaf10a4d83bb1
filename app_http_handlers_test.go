package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvanswers/engine"
)

func newTestRouter(app *App) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api")
	{
		api.GET("/answers", app.getAnswersHandler)
		api.GET("/answers/:filename", app.getAnswerHandler)
		api.PATCH("/answers/:filename", app.updateAnswerHandler)
		api.GET("/stats", app.getStatsHandler)
		api.POST("/extract", app.submitExtractJobHandler)
		api.GET("/jobs/:job_id", app.getJobStatusHandler)
		api.GET("/jobs", app.getAllJobsHandler)
		api.GET("/modifications", app.getModificationHistoryHandler)
		api.POST("/undo-modification/:id", app.undoModificationHandler)
	}
	return router
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetAnswersHandler(t *testing.T) {
	app := newTestApp(t, testRecords(), &stubProcessor{})
	router := newTestRouter(app)

	w := performRequest(router, "GET", "/api/answers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var records []AnswerRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 3)

	w = performRequest(router, "GET", "/api/answers?unresolved=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 2, "resolved entries are filtered out")
}

func TestGetAnswerHandler(t *testing.T) {
	app := newTestApp(t, testRecords(), &stubProcessor{})
	router := newTestRouter(app)

	w := performRequest(router, "GET", "/api/answers/001.jpg", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rec AnswerRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "老虎", rec.Answer)

	w = performRequest(router, "GET", "/api/answers/nope.jpg", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAnswerHandler(t *testing.T) {
	app := newTestApp(t, testRecords(), &stubProcessor{})
	router := newTestRouter(app)

	w := performRequest(router, "PATCH", "/api/answers/002.jpg", UpdateAnswerRequest{Answer: "手枪"})
	require.Equal(t, http.StatusOK, w.Code)

	rec, ok := app.Store.Get("002.jpg")
	require.True(t, ok)
	assert.Equal(t, "手枪", rec.Answer)

	mods, err := GetAllModifications(app.Database)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, answerSourceManual, mods[0].Source)

	w = performRequest(router, "PATCH", "/api/answers/nope.jpg", UpdateAnswerRequest{Answer: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUndoModificationHandler(t *testing.T) {
	app := newTestApp(t, testRecords(), &stubProcessor{})
	router := newTestRouter(app)

	w := performRequest(router, "PATCH", "/api/answers/001.jpg", UpdateAnswerRequest{Answer: "大象"})
	require.Equal(t, http.StatusOK, w.Code)

	mods, err := GetAllModifications(app.Database)
	require.NoError(t, err)
	require.Len(t, mods, 1)

	w = performRequest(router, "POST", "/api/undo-modification/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	rec, _ := app.Store.Get("001.jpg")
	assert.Equal(t, "老虎", rec.Answer, "previous answer restored")

	// Undoing twice fails.
	w = performRequest(router, "POST", "/api/undo-modification/1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStatsHandler(t *testing.T) {
	app := newTestApp(t, testRecords(), &stubProcessor{})
	router := newTestRouter(app)

	w := performRequest(router, "GET", "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats DatasetStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, DatasetStats{Total: 3, Resolved: 1, Placeholders: 1, Empty: 1}, stats)
}

func TestSubmitExtractJobHandler(t *testing.T) {
	app := newTestApp(t, testRecords(), &stubProcessor{selections: map[string]engine.Selection{
		"003.jpg": {Answer: "33", Rule: 2},
	}})
	router := newTestRouter(app)

	w := performRequest(router, "POST", "/api/extract", gin.H{"filename": "unknown.jpg"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, "POST", "/api/extract", gin.H{"filename": "003.jpg"})
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.JobID)

	job, exists := jobStore.getJob(resp.JobID)
	require.True(t, exists)
	assert.Equal(t, "pending", job.Status)
	assert.Equal(t, 1, job.TotalEntries)

	// Drain the queued job so other tests see a clean queue.
	queued := <-jobQueue
	processJob(app, queued)

	job, _ = jobStore.getJob(resp.JobID)
	assert.Equal(t, "completed", job.Status)
	assert.Equal(t, "33", job.Result)

	rec, _ := app.Store.Get("003.jpg")
	assert.Equal(t, "33", rec.Answer)
}

func TestGetJobStatusHandlerNotFound(t *testing.T) {
	app := newTestApp(t, testRecords(), &stubProcessor{})
	router := newTestRouter(app)

	w := performRequest(router, "GET", "/api/jobs/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
