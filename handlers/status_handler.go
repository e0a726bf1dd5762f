// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetJobStatusHandler godoc
// @Summary      Poll a background job
// @Description  Returns the job snapshot. Jobs older than one hour are
// evicted and return 404.
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path  string  true  "Job ID"
// @Success      200 {object} jobs.Job            "Job snapshot"
// @Failure      404 {object} echo.HTTPError      "Job not found"
// @Router       /v1/jobs/{job_id} [get]
func GetJobStatusHandler(c echo.Context) error {
	job, ok := JobTracker.Get(c.Param("job_id"))
	if !ok {
		return &echo.HTTPError{
			Code:    http.StatusNotFound,
			Message: "Job not found.",
		}
	}
	return respond(c, http.StatusOK, job)
}
