// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"fmt"
	"net/http"

	"reachcrm-server/commons"
	"reachcrm-server/importer"
	"reachcrm-server/jobs"
	"reachcrm-server/middlewares"
	"reachcrm-server/models"

	"github.com/labstack/echo/v4"
)

// JobTracker and ImportPipeline are wired at startup before routes are
// registered.
var (
	JobTracker     *jobs.Tracker
	ImportPipeline *importer.Pipeline
)

const maxImportRows = 10000

// ImportContactsHandler godoc
// @Summary      Import contacts in bulk
// @Description  Accepts up to 10000 rows and processes them asynchronously.
// Returns a job ID for polling.
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        importRequest  body  ImportContactsRequest  true  "Import payload"
// @Success      202 {object} ImportAcceptedResponse "Import accepted"
// @Failure      400 {object} echo.HTTPError         "Bad request"
// @Failure      413 {object} echo.HTTPError         "Too many rows"
// @Failure      500 {object} echo.HTTPError         "Internal server error"
// @Router       /v1/contacts/import [post]
func ImportContactsHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	var req ImportContactsRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid import request payload:", err)
		return echo.ErrBadRequest
	}

	if len(req.Rows) == 0 {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "rows field must contain at least one row",
		}
	}
	if len(req.Rows) > maxImportRows {
		return &echo.HTTPError{
			Code:    http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("Import is limited to %d rows per request.", maxImportRows),
		}
	}

	rows := make([]importer.RawRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, importer.RawRow(row))
	}

	jobID := JobTracker.Create()
	LogEvent(models.Import, models.Pending, userID, fmt.Sprintf("import of %d rows accepted", len(rows)), &jobID)

	pipeline := *ImportPipeline
	if req.DefaultRegion != "" {
		pipeline.DefaultRegion = req.DefaultRegion
	}

	mapping := req.Mapping
	go func() {
		summary, err := pipeline.Run(userID, rows, mapping, func(progress int, message string) {
			JobTracker.SetProgress(jobID, progress, message)
		})
		if err != nil {
			commons.Logger.Errorf("Import job %s failed: %v", jobID, err)
			JobTracker.Fail(jobID, "Import failed, no contacts were created.")
			LogEvent(models.Import, models.Failed, userID, err.Error(), &jobID)
			return
		}
		JobTracker.Complete(jobID, summary)
		LogEvent(models.Import, models.Succeeded, userID,
			fmt.Sprintf("imported %d of %d rows (%d duplicates, %d errors, %d over limit)",
				summary.Imported, summary.Total, summary.Duplicates, summary.Errors, summary.SkippedByLimit),
			&jobID)
	}()

	return c.JSON(http.StatusAccepted, Response{Success: true, Data: ImportAcceptedResponse{JobID: jobID}})
}
