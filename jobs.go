package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Job represents one queued extraction run: a single entry when Filename is
// set, otherwise the whole dataset.
type Job struct {
	ID        string
	Filename  string
	Status    string // "pending", "in_progress", "completed", "failed"
	Result    string // Extracted answer or error message
	CreatedAt time.Time
	UpdatedAt time.Time

	EntriesDone  int // Number of entries processed so far
	TotalEntries int // Total number of entries in the run

	Options BatchOptions
}

// JobStore manages jobs and their statuses
type JobStore struct {
	sync.RWMutex
	jobs map[string]*Job
}

var (
	logger = logrus.New()

	jobStore = &JobStore{
		jobs: make(map[string]*Job),
	}
	jobQueue = make(chan *Job, 100) // Buffered channel with capacity of 100 jobs
)

func init() {
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logrus.InfoLevel)
	logger.WithField("prefix", "EXTRACT_JOB")
}

func generateJobID() string {
	return uuid.New().String()
}

func (store *JobStore) addJob(job *Job) {
	store.Lock()
	defer store.Unlock()
	job.EntriesDone = 0
	store.jobs[job.ID] = job
	logger.Infof("Job added: %v", job)
}

func (store *JobStore) getJob(jobID string) (*Job, bool) {
	store.RLock()
	defer store.RUnlock()
	job, exists := store.jobs[jobID]
	return job, exists
}

func (store *JobStore) GetAllJobs() []*Job {
	store.RLock()
	defer store.RUnlock()

	jobs := make([]*Job, 0, len(store.jobs))
	for _, job := range store.jobs {
		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	return jobs
}

func (store *JobStore) updateJobStatus(jobID, status, result string) {
	store.Lock()
	defer store.Unlock()
	if job, exists := store.jobs[jobID]; exists {
		job.Status = status
		if result != "" {
			job.Result = result
		}
		job.UpdatedAt = time.Now()
		logger.Infof("Job status updated: %v", job)
	}
}

func (store *JobStore) updateEntriesDone(jobID string, entriesDone int) {
	store.Lock()
	defer store.Unlock()
	if job, exists := store.jobs[jobID]; exists {
		job.EntriesDone = entriesDone
		job.UpdatedAt = time.Now()
	}
}

func startWorkerPool(app *App, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go func(workerID int) {
			logger.Infof("Worker %d started", workerID)
			for job := range jobQueue {
				logger.Infof("Worker %d processing job: %s", workerID, job.ID)
				processJob(app, job)
			}
		}(i)
	}
}

func processJob(app *App, job *Job) {
	jobStore.updateJobStatus(job.ID, "in_progress", "")
	ctx := context.Background()

	if job.Filename != "" {
		processEntryJob(ctx, app, job)
		return
	}

	report, err := app.ProcessDataset(ctx, job.Options, job.ID)
	if err != nil {
		logger.Errorf("Error processing dataset for job %s: %v", job.ID, err)
		jobStore.updateJobStatus(job.ID, "failed", err.Error())
		return
	}

	result := fmt.Sprintf("Updated %d of %d processed entries (%d unresolved, %d failed)",
		report.Updated, report.Processed, report.Unresolved, report.Failed)
	jobStore.updateJobStatus(job.ID, "completed", result)
	logger.Infof("Job completed: %s", job.ID)
}

func processEntryJob(ctx context.Context, app *App, job *Job) {
	rec, ok := app.Store.Get(job.Filename)
	if !ok {
		jobStore.updateJobStatus(job.ID, "failed", fmt.Sprintf("no record for %s", job.Filename))
		return
	}

	selection, err := app.EvaluateImage(ctx, rec, job.Options.FetchOriginals)
	if err != nil {
		logger.Errorf("Error evaluating entry for job %s: %v", job.ID, err)
		jobStore.updateJobStatus(job.ID, "failed", err.Error())
		return
	}

	jobStore.updateEntriesDone(job.ID, 1)
	if selection.Answer == "" {
		jobStore.updateJobStatus(job.ID, "completed", "No answer found, entry left for manual review")
		return
	}

	if err := app.applyAnswer(rec.Filename, selection.Answer, answerSourceAuto); err != nil {
		jobStore.updateJobStatus(job.ID, "failed", err.Error())
		return
	}
	if err := app.Store.Save(); err != nil {
		jobStore.updateJobStatus(job.ID, "failed", err.Error())
		return
	}

	jobStore.updateJobStatus(job.ID, "completed", selection.Answer)
	logger.Infof("Job completed: %s", job.ID)
}
