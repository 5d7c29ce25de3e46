package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"schoolattend/internal/attendance"
	"schoolattend/internal/jobs"
	"schoolattend/internal/queue"
)

// readUpload reads the multipart "file" field. It writes the error response
// itself and reports false when there is nothing to process.
func (a *api) readUpload(c *gin.Context) (string, []byte, bool) {
	if limit := a.Config.MaxUploadBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return "", nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return "", nil, false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
		return "", nil, false
	}
	return header.Filename, data, true
}

func (a *api) uploadAttendance(c *gin.Context) {
	name, data, ok := a.readUpload(c)
	if !ok {
		return
	}
	rep, err := a.Attendance.Ingest(c.Request.Context(), name, data)
	switch {
	case errors.Is(err, attendance.ErrNoRows):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "could not parse any attendance rows",
			"kind":    rep.Kind,
			"dropped": rep.Dropped,
		})
	case err != nil:
		a.Log.Error("attendance upload failed", "file", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "attendance upload failed",
			"updated": rep.Updated,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"message":    fmt.Sprintf("attendance uploaded: %d rows parsed, %d day entries added", rep.ParsedRows, rep.Updated),
			"parsedRows": rep.ParsedRows,
			"updated":    rep.Updated,
			"strategy":   rep.Strategy,
			"documents":  rep.Documents,
			"dropped":    rep.Dropped,
		})
	}
}

func (a *api) enqueueUpload(c *gin.Context) {
	if a.Queue == nil || a.Jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job queue not configured"})
		return
	}
	name, data, ok := a.readUpload(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	job := jobs.Job{ID: uuid.NewString(), FileName: name, Status: jobs.StatusQueued}

	if a.Archive != nil {
		res, err := a.Archive.UploadRaw(ctx, data, name)
		if err != nil {
			a.Log.Warn("archive upload failed", "file", name, "error", err)
		} else {
			job.ArchiveURL = res.SecureURL
		}
	}

	if err := a.Jobs.Put(ctx, job); err != nil {
		a.Log.Error("store job failed", "job", job.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not queue upload"})
		return
	}
	msg, err := queue.NewIngest(queue.IngestJob{JobID: job.ID, FileName: name, ArchiveURL: job.ArchiveURL, Data: data})
	if err == nil {
		err = a.Queue.Publish(ctx, msg)
	}
	if err != nil {
		a.Log.Error("queue publish failed", "job", job.ID, "error", err)
		job.Status = jobs.StatusFailed
		job.Error = "could not queue upload"
		_ = a.Jobs.Put(ctx, job)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not queue upload"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobId": job.ID, "status": job.Status, "archiveUrl": job.ArchiveURL})
}

func (a *api) getJob(c *gin.Context) {
	if a.Jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job queue not configured"})
		return
	}
	job, err := a.Jobs.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}
