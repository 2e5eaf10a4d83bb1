package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// getAnswersHandler handles the GET /api/answers endpoint
func (app *App) getAnswersHandler(c *gin.Context) {
	records := app.Store.Records()

	if c.Query("unresolved") == "true" {
		filtered := make([]AnswerRecord, 0, len(records))
		for _, rec := range records {
			if !IsResolved(rec) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	c.JSON(http.StatusOK, records)
}

// getAnswerHandler handles the GET /api/answers/:filename endpoint
func (app *App) getAnswerHandler(c *gin.Context) {
	filename := c.Param("filename")

	rec, ok := app.Store.Get(filename)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No record for %s", filename)})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// updateAnswerHandler handles the PATCH /api/answers/:filename endpoint
// for manual corrections.
func (app *App) updateAnswerHandler(c *gin.Context) {
	filename := c.Param("filename")

	var req UpdateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request payload: %v", err)})
		return
	}

	if _, ok := app.Store.Get(filename); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No record for %s", filename)})
		return
	}

	if err := app.applyAnswer(filename, req.Answer, answerSourceManual); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error updating answer: %v", err)})
		log.Errorf("Error updating answer for %s: %v", filename, err)
		return
	}
	if err := app.Store.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error saving answer file: %v", err)})
		log.Errorf("Error saving answer file: %v", err)
		return
	}

	rec, _ := app.Store.Get(filename)
	c.JSON(http.StatusOK, rec)
}

// getStatsHandler handles the GET /api/stats endpoint
func (app *App) getStatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, app.Store.Stats())
}

// submitExtractJobHandler handles the POST /api/extract endpoint. With a
// filename it queues a single-entry job, otherwise a full dataset run.
func (app *App) submitExtractJobHandler(c *gin.Context) {
	var req struct {
		Filename string `json:"filename"`
		BatchOptions
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request payload: %v", err)})
		return
	}

	totalEntries := app.Store.Len()
	if req.Filename != "" {
		if _, ok := app.Store.Get(req.Filename); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No record for %s", req.Filename)})
			return
		}
		totalEntries = 1
	}

	job := &Job{
		ID:           generateJobID(),
		Filename:     req.Filename,
		Status:       "pending",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
		TotalEntries: totalEntries,
		Options:      req.BatchOptions,
	}

	jobStore.addJob(job)

	select {
	case jobQueue <- job:
		c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID})
	default:
		jobStore.updateJobStatus(job.ID, "failed", "Job queue is full")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Job queue is full"})
	}
}

// getJobStatusHandler handles the GET /api/jobs/:job_id endpoint
func (app *App) getJobStatusHandler(c *gin.Context) {
	jobID := c.Param("job_id")
	job, exists := jobStore.getJob(jobID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, jobResponse(job))
}

// getAllJobsHandler handles the GET /api/jobs endpoint
func (app *App) getAllJobsHandler(c *gin.Context) {
	jobs := jobStore.GetAllJobs()

	response := make([]gin.H, 0, len(jobs))
	for _, job := range jobs {
		response = append(response, jobResponse(job))
	}

	c.JSON(http.StatusOK, response)
}

func jobResponse(job *Job) gin.H {
	return gin.H{
		"job_id":        job.ID,
		"filename":      job.Filename,
		"status":        job.Status,
		"result":        job.Result,
		"entries_done":  job.EntriesDone,
		"total_entries": job.TotalEntries,
		"created_at":    job.CreatedAt,
		"updated_at":    job.UpdatedAt,
	}
}

// getModificationHistoryHandler handles the GET /api/modifications endpoint
func (app *App) getModificationHistoryHandler(c *gin.Context) {
	records, err := GetAllModifications(app.Database)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error fetching modifications: %v", err)})
		log.Errorf("Error fetching modifications: %v", err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// undoModificationHandler handles the POST /api/undo-modification/:id
// endpoint. The modification is marked undone and the previous answer is
// restored in the store.
func (app *App) undoModificationHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid modification ID"})
		return
	}

	record, err := UndoModification(app.Database, uint(id))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Error undoing modification: %v", err)})
		return
	}

	if _, err := app.Store.UpdateAnswer(record.Filename, record.PreviousValue); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error restoring answer: %v", err)})
		return
	}
	if err := app.Store.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error saving answer file: %v", err)})
		return
	}

	c.JSON(http.StatusOK, record)
}

// getSettingsHandler handles the GET /api/settings endpoint
func getSettingsHandler(c *gin.Context) {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	c.JSON(http.StatusOK, settings)
}

// updateSettingsHandler handles the POST /api/settings endpoint. Updated
// tunables take effect for subsequently started runs.
func (app *App) updateSettingsHandler(c *gin.Context) {
	var req Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request payload: %v", err)})
		return
	}

	settingsMutex.Lock()
	settings = req
	settingsMutex.Unlock()

	if err := saveSettings(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error saving settings: %v", err)})
		log.Errorf("Error saving settings: %v", err)
		return
	}

	app.RefreshPipeline()
	c.Status(http.StatusOK)
}
