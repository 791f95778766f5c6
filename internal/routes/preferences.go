package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/dleads/stakeados/internal/config"
	"github.com/dleads/stakeados/internal/model"
	"github.com/dleads/stakeados/internal/notifications"
)

// preferencesPatchRequest is the wire form of a partial preferences update.
type preferencesPatchRequest struct {
	InApp           *bool                               `json:"in_app"`
	Email           *bool                               `json:"email"`
	Push            *bool                               `json:"push"`
	Digest          *model.DigestFrequency              `json:"digest"`
	QuietHoursStart *string                             `json:"quiet_hours_start"`
	QuietHoursEnd   *string                             `json:"quiet_hours_end"`
	Timezone        *string                             `json:"timezone"`
	Categories      map[string]model.CategoryPreference `json:"categories"`
}

func (r preferencesPatchRequest) toPatch() notifications.Patch {
	return notifications.Patch{
		InApp:           r.InApp,
		Email:           r.Email,
		Push:            r.Push,
		Digest:          r.Digest,
		QuietHoursStart: r.QuietHoursStart,
		QuietHoursEnd:   r.QuietHoursEnd,
		Timezone:        r.Timezone,
		Categories:      r.Categories,
	}
}

func (h *Handler) servePreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	switch r.Method {
	case http.MethodGet:
		prefs, err := h.prefs.GetUserPreferences(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	case http.MethodPatch:
		var req preferencesPatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		prefs, err := h.prefs.UpdateUserPreferences(r.Context(), userID, req.toPatch())
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	default:
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
	}
}

func (h *Handler) servePreferencesReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	userID, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	prefs, err := h.prefs.ResetToDefaults(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handler) servePreferencesExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	userID, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	blob, err := h.prefs.ExportPreferences(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="notification-preferences.json.gz"`)
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

func (h *Handler) servePreferencesImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	userID, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	blob, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	prefs, err := h.prefs.ImportPreferences(r.Context(), userID, blob)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handler) serveQuietHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	userID, err := h.auth.EnforceUserAndGetID(w, r)
	if err != nil {
		return
	}

	prefs, err := h.prefs.GetUserPreferences(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	status, err := notifications.ComputeQuietHours(
		prefs.QuietHoursStart, prefs.QuietHoursEnd, prefs.Timezone, time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) serveTimezones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.prefs.AvailableTimezones())
}
