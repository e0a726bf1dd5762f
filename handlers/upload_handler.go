// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"reachcrm-server/ai"
	"reachcrm-server/commons"
	"reachcrm-server/importer"
	"reachcrm-server/middlewares"
	"reachcrm-server/models"
	"reachcrm-server/storage"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ledongthuc/pdf"
)

// Store is wired at startup. It stays nil when object storage is not
// configured, which disables the upload endpoints.
var Store storage.ObjectStore

const maxUploadBytes = 10 << 20

const scanPrompt = "Extract every person and their contact details from this " +
	"document. Respond with a JSON array of objects using the keys name, " +
	"email, phone, company and position. Use an empty string for unknown " +
	"fields. Respond with the JSON array only."

// UploadFileHandler godoc
// @Summary      Upload a file
// @Description  Stores a file in object storage and returns a presigned URL.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "File to upload"
// @Success      201 {object} UploadResponse      "File stored"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      413 {object} echo.HTTPError      "File too large"
// @Failure      503 {object} echo.HTTPError      "Object storage not configured"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/uploads [post]
func UploadFileHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		return err
	}

	if Store == nil {
		return &echo.HTTPError{
			Code:    http.StatusServiceUnavailable,
			Message: "Object storage is not configured.",
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "file form field is required",
		}
	}
	if fileHeader.Size > maxUploadBytes {
		return &echo.HTTPError{
			Code:    http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("Uploads are limited to %d MB.", maxUploadBytes>>20),
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		logger.Errorf("Failed to open uploaded file: %v", err)
		return echo.ErrInternalServerError
	}
	defer src.Close()

	key := fmt.Sprintf("%s/%s%s", user.AccountID, uuid.NewString(), filepath.Ext(fileHeader.Filename))
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx := c.Request().Context()
	if err := Store.Put(ctx, key, src, fileHeader.Size, contentType); err != nil {
		logger.Errorf("Failed to store uploaded file: %v", err)
		return echo.ErrInternalServerError
	}

	url, err := Store.PresignGet(ctx, key, time.Hour)
	if err != nil {
		logger.Errorf("Failed to presign uploaded file: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusCreated, UploadResponse{
		ObjectKey: key,
		URL:       url,
		Size:      fileHeader.Size,
	})
}

// ScanUploadHandler godoc
// @Summary      Scan an uploaded document for contacts
// @Description  Extracts contacts from a stored PDF or image and imports them
// asynchronously. Returns a job ID for polling.
// @Tags         uploads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        scanRequest  body  ScanUploadRequest  true  "Scan payload"
// @Success      202 {object} ImportAcceptedResponse "Scan accepted"
// @Failure      400 {object} echo.HTTPError         "Bad request"
// @Failure      403 {object} echo.HTTPError         "Object belongs to another account"
// @Failure      503 {object} echo.HTTPError         "Object storage not configured"
// @Router       /v1/uploads/scan [post]
func ScanUploadHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		return err
	}

	if Store == nil {
		return &echo.HTTPError{
			Code:    http.StatusServiceUnavailable,
			Message: "Object storage is not configured.",
		}
	}

	var req ScanUploadRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid scan request payload:", err)
		return echo.ErrBadRequest
	}
	if req.ObjectKey == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "object_key field is required",
		}
	}
	if !strings.HasPrefix(req.ObjectKey, user.AccountID+"/") {
		return &echo.HTTPError{
			Code:    http.StatusForbidden,
			Message: "Object does not belong to this account.",
		}
	}

	userID := user.ID
	jobID := JobTracker.Create()
	LogEvent(models.Import, models.Pending, userID, "document scan accepted", &jobID)

	pipeline := *ImportPipeline
	if req.DefaultRegion != "" {
		pipeline.DefaultRegion = req.DefaultRegion
	}

	objectKey := req.ObjectKey
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		rows, err := extractContactRows(ctx, objectKey, func(progress int, message string) {
			JobTracker.SetProgress(jobID, progress, message)
		})
		if err != nil {
			commons.Logger.Errorf("Scan job %s failed: %v", jobID, err)
			JobTracker.Fail(jobID, "Could not extract contacts from the document.")
			LogEvent(models.Import, models.Failed, userID, err.Error(), &jobID)
			return
		}

		summary, err := pipeline.Run(userID, rows, nil, func(progress int, message string) {
			// Extraction owns the first half of the progress bar.
			JobTracker.SetProgress(jobID, 50+progress/2, message)
		})
		if err != nil {
			commons.Logger.Errorf("Scan job %s failed: %v", jobID, err)
			JobTracker.Fail(jobID, "Import failed, no contacts were created.")
			LogEvent(models.Import, models.Failed, userID, err.Error(), &jobID)
			return
		}
		JobTracker.Complete(jobID, summary)
		LogEvent(models.Import, models.Succeeded, userID,
			fmt.Sprintf("scanned document produced %d contacts", summary.Imported), &jobID)
	}()

	return c.JSON(http.StatusAccepted, Response{Success: true, Data: ImportAcceptedResponse{JobID: jobID}})
}

func extractContactRows(ctx context.Context, objectKey string, progress func(int, string)) ([]importer.RawRow, error) {
	progress(10, "Fetching document")
	object, err := Store.Get(ctx, objectKey)
	if err != nil {
		return nil, fmt.Errorf("fetch object: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(io.LimitReader(object, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Errorf("object exceeds scan size limit")
	}

	progress(25, "Extracting contact details")
	var raw string
	if bytes.HasPrefix(data, []byte("%PDF")) {
		text, err := extractPDFText(data)
		if err != nil {
			return nil, fmt.Errorf("extract pdf text: %w", err)
		}
		raw, err = Assistant.GenerateText(ctx, scanPrompt, text)
		if err != nil {
			return nil, fmt.Errorf("generate from pdf text: %w", err)
		}
	} else {
		mimeType := http.DetectContentType(data)
		raw, err = Assistant.GenerateFromImage(ctx, scanPrompt, data, mimeType)
		if err != nil {
			return nil, fmt.Errorf("generate from image: %w", err)
		}
	}

	progress(40, "Parsing extracted contacts")
	payload, err := ai.ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("locate json in model output: %w", err)
	}
	var rows []map[string]string
	if err := json.Unmarshal([]byte(payload), &rows); err != nil {
		return nil, fmt.Errorf("decode extracted contacts: %w", err)
	}

	result := make([]importer.RawRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, importer.RawRow(row))
	}
	progress(50, "Extraction finished")
	return result, nil
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	text, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, text); err != nil {
		return "", err
	}
	return builder.String(), nil
}
