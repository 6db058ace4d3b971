package controllers

import (
	"net/http"
	"time"

	"github.com/telaprint/telaprint-backend/api/responses"
	"github.com/telaprint/telaprint-backend/api/validators"
	"github.com/telaprint/telaprint-backend/internal/settings"
	"github.com/telaprint/telaprint-backend/pkg/logger"
)

type settingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type settingsListResponse struct {
	Settings []settingResponse `json:"settings"`
}

type setSettingRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// AdminListSettings returns every runtime setting.
func AdminListSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := settingsListResponse{Settings: make([]settingResponse, 0, len(list))}
		for _, setting := range list {
			resp.Settings = append(resp.Settings, settingResponse{
				Key:       setting.Key,
				Value:     setting.Value,
				UpdatedAt: setting.UpdatedAt,
			})
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminSetSetting upserts one runtime setting and invalidates its cache entry.
func AdminSetSetting(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setSettingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Set(r.Context(), req.Key, req.Value); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settingResponse{Key: req.Key, Value: req.Value, UpdatedAt: time.Now().UTC()})
	}
}
