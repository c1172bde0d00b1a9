// Copyright 2026 The Internalize Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/internalize/internalize/internal/account"
	"github.com/internalize/internalize/internal/archive"
	"github.com/internalize/internalize/internal/audit"
	"github.com/internalize/internalize/internal/events"
	"github.com/internalize/internalize/internal/inventory"
	"github.com/internalize/internalize/internal/loader"
	"github.com/internalize/internalize/internal/observability/logger"
)

// uploadField is the multipart field carrying the workbook
const uploadField = "file"

// ListCIs lists the CIs in one status, CREATED by default
func (h *Handler) ListCIs(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}

	status := inventory.StatusCreated
	if v := r.URL.Query().Get("status"); v != "" {
		if status, err = inventory.ParseStatus(v); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	cis, err := h.inventory.ListCIs(r.Context(), scope, status)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to list configuration items")
		return
	}
	respondJSON(w, http.StatusOK, cis)
}

// GetCI returns a CI with its place, contract and appliances
func (h *Handler) GetCI(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}
	id, ok := idParam(w, r, "ciID")
	if !ok {
		return
	}

	ci, err := h.inventory.GetCI(r.Context(), scope, id)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get configuration item")
		return
	}
	respondJSON(w, http.StatusOK, ci)
}

// CIRequest is the body of POST /cis
type CIRequest struct {
	ClientID       int64                    `json:"client_id" validate:"gte=0"`
	PlaceID        int64                    `json:"place_id" validate:"required,gt=0"`
	ContractID     *int64                   `json:"contract_id" validate:"omitempty,gt=0"`
	ApplianceIDs   []int64                  `json:"appliance_ids" validate:"dive,gt=0"`
	Hostname       string                   `json:"hostname" validate:"required,max=255"`
	IP             string                   `json:"ip" validate:"required,ip"`
	Description    string                   `json:"description"`
	Deployed       bool                     `json:"deployed"`
	BusinessImpact inventory.BusinessImpact `json:"business_impact"`
	Username       string                   `json:"username"`
	Password       string                   `json:"password"`
	EnablePassword string                   `json:"enable_password"`
	Instructions   string                   `json:"instructions"`
}

// CreateCI registers a CI by hand
func (h *Handler) CreateCI(w http.ResponseWriter, r *http.Request) {
	scope, err := GetScope(r.Context())
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}
	var req CIRequest
	if !h.decode(w, r, &req) {
		return
	}

	ci, err := h.inventory.CreateCI(r.Context(), scope, GetUserID(r.Context()), inventory.CIInput{
		ClientID:       req.ClientID,
		PlaceID:        req.PlaceID,
		ContractID:     req.ContractID,
		ApplianceIDs:   req.ApplianceIDs,
		Hostname:       req.Hostname,
		IP:             req.IP,
		Description:    req.Description,
		Deployed:       req.Deployed,
		BusinessImpact: req.BusinessImpact,
		Credentials: inventory.Credentials{
			Username:       req.Username,
			Password:       req.Password,
			EnablePassword: req.EnablePassword,
			Instructions:   req.Instructions,
		},
	})
	if err != nil {
		h.respondServiceError(w, r, err, "failed to create configuration item")
		return
	}
	respondJSON(w, http.StatusCreated, ci)
}

// UploadResponse is the outcome of a workbook upload
type UploadResponse struct {
	*loader.Result
	Summary string `json:"summary"`
}

// UploadCIs loads a workbook for the caller's client. Superusers pick the
// client with the client_id form field.
func (h *Handler) UploadCIs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := GetUser(ctx)
	scope, err := GetScope(ctx)
	if err != nil {
		respondError(w, http.StatusForbidden, msgNotApproved)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes)
	if err := r.ParseMultipartForm(h.uploadMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "workbook is too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile(uploadField)
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read workbook")
		return
	}

	clientID, ok := uploadClient(w, r, user)
	if !ok {
		return
	}
	client, err := h.inventory.GetClient(ctx, scope, clientID)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get client")
		return
	}

	res, err := h.loader.Load(ctx, client, bytes.NewReader(data))
	if res == nil {
		if errors.Is(err, loader.ErrInvalidWorkbook) || errors.Is(err, loader.ErrSheetNotFound) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondServiceError(w, r, err, "failed to load workbook")
		return
	}

	h.afterUpload(context.WithoutCancel(ctx), user, res, data, err != nil)

	if err != nil {
		slog.ErrorContext(ctx, "upload aborted", logger.RunID(res.RunID.String()), logger.Error(err))
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"error":  "upload aborted",
			"result": UploadResponse{Result: res, Summary: res.Summary()},
		})
		return
	}
	respondJSON(w, http.StatusOK, UploadResponse{Result: res, Summary: res.Summary()})
}

func uploadClient(w http.ResponseWriter, r *http.Request, user *account.User) (int64, bool) {
	if !user.IsSuperuser {
		return *user.ClientID, true
	}
	id, err := strconv.ParseInt(r.FormValue("client_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "client_id is required")
		return 0, false
	}
	return id, true
}

// afterUpload records metrics, audits, archives and announces a finished
// run. None of its failures reach the uploader.
func (h *Handler) afterUpload(ctx context.Context, actor *account.User, res *loader.Result, data []byte, aborted bool) {
	log := slog.Default().With(logger.Component("upload"), logger.RunID(res.RunID.String()), logger.ClientID(res.ClientID))

	h.metrics.ObserveLoad(ctx, res.Succeeded(), res.Failed(), res.Duration(), aborted)

	h.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeCIUpload,
		ClientID: res.ClientID,
		ActorID:  actor.ID,
		Resource: "ci",
		Metadata: map[string]any{
			audit.AttrRunID:   res.RunID.String(),
			audit.AttrCreated: res.Succeeded(),
			audit.AttrFailed:  res.Failed(),
			"aborted":         aborted,
		},
	})

	var archiveKey string
	if h.archiver != nil {
		key := archive.Key(res.ClientID, res.RunID)
		digest, err := h.archiver.Put(ctx, key, data)
		if err != nil {
			log.WarnContext(ctx, "failed to archive workbook", logger.Error(err))
		} else {
			archiveKey = key
			log.DebugContext(ctx, "workbook archived", slog.String("key", key), slog.String("sha256", digest))
		}
	}

	err := h.publisher.Publish(ctx, events.SubjectUploadCompleted, events.UploadCompleted{
		RunID:      res.RunID,
		ClientID:   res.ClientID,
		Created:    res.Succeeded(),
		Failed:     res.Failed(),
		Aborted:    aborted,
		ArchiveKey: archiveKey,
		At:         res.FinishedAt,
	})
	if err != nil {
		log.WarnContext(ctx, "failed to publish event", slog.String("subject", events.SubjectUploadCompleted), logger.Error(err))
	}
}

// CIIDsRequest carries a list of CI IDs
type CIIDsRequest struct {
	CIIDs []int64 `json:"ci_ids" validate:"required,min=1,dive,gt=0"`
}

// ApproveCIs approves CIs outside of any pack. Superuser only.
func (h *Handler) ApproveCIs(w http.ResponseWriter, r *http.Request) {
	var req CIIDsRequest
	if !h.decode(w, r, &req) {
		return
	}

	n, err := h.packs.ApproveCIs(r.Context(), GetUser(r.Context()), req.CIIDs)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to approve configuration items")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"approved": n})
}
