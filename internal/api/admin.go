package api

import (
	"net/http"

	"github.com/campusbook/classwork/internal/apperr"
	"github.com/campusbook/classwork/internal/backupclient"
)

// Admin-only ops endpoints. The database backup itself runs in the
// pgbackup sidecar; these just trigger it and relay its status line.

func (a *API) requireAdmin(r *http.Request) error {
	if !principal(r).IsAdmin() {
		return apperr.E(apperr.Forbidden, "admin only")
	}
	return nil
}

type opsResp struct {
	Status string `json:"status"`
}

func (a *API) handleBackup(w http.ResponseWriter, r *http.Request) {
	if err := a.requireAdmin(r); err != nil {
		a.respondErr(w, err)
		return
	}
	status, err := backupclient.TriggerBackup(r.Context())
	if err != nil {
		a.Log.Errorw("backup failed", "err", err)
		a.respondErr(w, err)
		return
	}
	a.Log.Infow("backup triggered", "by", principal(r).ID, "status", status)
	a.respondJSON(w, http.StatusOK, opsResp{Status: status})
}

func (a *API) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := a.requireAdmin(r); err != nil {
		a.respondErr(w, err)
		return
	}
	status, err := backupclient.RestoreLatest(r.Context())
	if err != nil {
		a.Log.Errorw("restore failed", "err", err)
		a.respondErr(w, err)
		return
	}
	a.Log.Infow("restore triggered", "by", principal(r).ID, "status", status)
	a.respondJSON(w, http.StatusOK, opsResp{Status: status})
}
