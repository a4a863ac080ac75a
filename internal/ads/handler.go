package ads

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/faridz/amlak/internal/api"
	"github.com/faridz/amlak/internal/auth"
	"github.com/faridz/amlak/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxUploadFiles  = 10
	maxUploadBytes  = 5 << 20
)

var imageExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type Handler struct {
	service *Service
	images  storage.ImageStore
	log     *zap.Logger
}

func NewHandler(service *Service, images storage.ImageStore, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		images:  images,
		log:     log,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var in AdInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ad, err := h.service.Create(r.Context(), claims.UserID, in)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("failed to create ad", zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to create ad")
		return
	}

	api.JSON(w, http.StatusCreated, map[string]interface{}{
		"message": "ad created and awaiting approval",
		"ad":      ad,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	adID, err := adIDParam(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid ad id")
		return
	}

	var in AdInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ad, err := h.service.Update(r.Context(), claims, adID, in)
	if err != nil {
		h.writeMutationError(w, adID, err, "failed to update ad")
		return
	}

	api.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "ad updated successfully",
		"ad":      ad,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	adID, err := adIDParam(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid ad id")
		return
	}

	if err := h.service.Delete(r.Context(), claims, adID); err != nil {
		h.writeMutationError(w, adID, err, "failed to delete ad")
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "ad deleted successfully"})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	adID, err := adIDParam(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid ad id")
		return
	}

	ad, err := h.service.Get(r.Context(), adID)
	if err != nil {
		if errors.Is(err, ErrAdNotFound) {
			api.Error(w, http.StatusNotFound, "ad not found")
			return
		}
		h.log.Error("failed to load ad", zap.Uint("ad_id", adID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to load ad")
		return
	}

	api.JSON(w, http.StatusOK, map[string]*Ad{"ad": ad})
}

func (h *Handler) ListApproved(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	h.writeList(w, r, func() ([]Ad, error) {
		return h.service.ListApproved(r.Context(), limit, offset)
	})
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	h.writeList(w, r, func() ([]Ad, error) {
		return h.service.ListAll(r.Context(), limit, offset)
	})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")
	limit, offset := pagination(r)
	h.writeList(w, r, func() ([]Ad, error) {
		return h.service.Search(r.Context(), query, limit, offset)
	})
}

func (h *Handler) ByProvince(w http.ResponseWriter, r *http.Request) {
	province := chi.URLParam(r, "province")
	limit, offset := pagination(r)
	h.writeList(w, r, func() ([]Ad, error) {
		return h.service.ListByProvince(r.Context(), province, limit, offset)
	})
}

func (h *Handler) ByPropertyType(w http.ResponseWriter, r *http.Request) {
	propertyType := PropertyType(chi.URLParam(r, "propertyType"))
	limit, offset := pagination(r)
	h.writeList(w, r, func() ([]Ad, error) {
		return h.service.ListByPropertyType(r.Context(), propertyType, limit, offset)
	})
}

func (h *Handler) MyAds(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	h.writeList(w, r, func() ([]Ad, error) {
		return h.service.MyAds(r.Context(), claims.UserID)
	})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ClaimsFromContext(r.Context())
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	dashboard, err := h.service.DashboardFor(r.Context(), claims.UserID)
	if err != nil {
		h.log.Error("failed to build dashboard", zap.Uint("user_id", claims.UserID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	api.JSON(w, http.StatusOK, dashboard)
}

type moderateRequest struct {
	Status     Status  `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	adID, err := adIDParam(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid ad id")
		return
	}

	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.Moderate(r.Context(), adID, req.Status, req.AdminNotes); err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			api.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrAdNotFound):
			api.Error(w, http.StatusNotFound, "ad not found")
		default:
			h.log.Error("failed to moderate ad", zap.Uint("ad_id", adID), zap.Error(err))
			api.Error(w, http.StatusInternalServerError, "failed to update ad status")
		}
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "ad status updated"})
}

type rateRequest struct {
	Stars int `json:"stars"`
}

func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	adID, err := adIDParam(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid ad id")
		return
	}

	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.Rate(r.Context(), adID, req.Stars); err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			api.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrAdNotFound):
			api.Error(w, http.StatusNotFound, "ad not found")
		default:
			h.log.Error("failed to rate ad", zap.Uint("ad_id", adID), zap.Error(err))
			api.Error(w, http.StatusInternalServerError, "failed to rate ad")
		}
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "rating recorded"})
}

func (h *Handler) RecordClick(w http.ResponseWriter, r *http.Request) {
	adID, err := adIDParam(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid ad id")
		return
	}
	if err := h.service.RecordClick(r.Context(), adID); err != nil {
		h.log.Warn("failed to record click", zap.Uint("ad_id", adID), zap.Error(err))
	}
	api.JSON(w, http.StatusOK, map[string]string{"message": "click recorded"})
}

func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	adID, err := adIDParam(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid ad id")
		return
	}
	if err := h.service.RecordView(r.Context(), adID); err != nil {
		h.log.Warn("failed to record view", zap.Uint("ad_id", adID), zap.Error(err))
	}
	api.JSON(w, http.StatusOK, map[string]string{"message": "view recorded"})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.log.Error("failed to load stats", zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	api.JSON(w, http.StatusOK, stats)
}

type uploadedFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	URL          string `json:"url"`
}

// Upload accepts up to ten images, five megabytes each, and stores them in
// the object store.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		api.Error(w, http.StatusBadRequest, "no files uploaded")
		return
	}
	if len(files) > maxUploadFiles {
		api.Error(w, http.StatusBadRequest, "too many files")
		return
	}

	uploaded := make([]uploadedFile, 0, len(files))
	for _, header := range files {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !imageExtensions[ext] {
			api.Error(w, http.StatusBadRequest, "only image files are allowed")
			return
		}
		if header.Size > maxUploadBytes {
			api.Error(w, http.StatusBadRequest, "file exceeds the 5MB limit")
			return
		}

		file, err := header.Open()
		if err != nil {
			api.Error(w, http.StatusBadRequest, "unable to read uploaded file")
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		_ = file.Close()
		if err != nil || len(data) > maxUploadBytes {
			api.Error(w, http.StatusBadRequest, "file exceeds the 5MB limit")
			return
		}

		url, err := h.images.Upload(r.Context(), header.Filename, data)
		if err != nil {
			h.log.Error("image upload failed", zap.String("filename", header.Filename), zap.Error(err))
			api.Error(w, http.StatusInternalServerError, "failed to upload files")
			return
		}
		uploaded = append(uploaded, uploadedFile{
			Filename:     url[strings.LastIndex(url, "/")+1:],
			OriginalName: header.Filename,
			URL:          url,
		})
	}

	api.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "files uploaded successfully",
		"files":   uploaded,
	})
}

func (h *Handler) writeMutationError(w http.ResponseWriter, adID uint, err error, fallback string) {
	switch {
	case errors.Is(err, ErrAdNotFound):
		api.Error(w, http.StatusNotFound, "ad not found")
	case errors.Is(err, auth.ErrForbidden):
		api.Error(w, http.StatusForbidden, "you are not allowed to modify this ad")
	case errors.Is(err, ErrInvalidInput):
		api.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error(fallback, zap.Uint("ad_id", adID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, fallback)
	}
}

func (h *Handler) writeList(w http.ResponseWriter, _ *http.Request, load func() ([]Ad, error)) {
	ads, err := load()
	if err != nil {
		h.log.Error("failed to list ads", zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to list ads")
		return
	}
	if ads == nil {
		ads = []Ad{}
	}
	api.JSON(w, http.StatusOK, map[string][]Ad{"ads": ads})
}

func adIDParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "adID"), 10, 32)
	return uint(id), err
}

func pagination(r *http.Request) (limit, offset int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, (page - 1) * limit
}
