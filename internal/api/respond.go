// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package api

import (
	"encoding/json"
	"net/http"

	flerrors "github.com/yaoyj11/plexus/internal/errors"
)

var (
	errBadSwitchID   = flerrors.New(flerrors.KindNotFound, "switch id must be 16 hex characters or \"all\"")
	errUnknownSwitch = flerrors.New(flerrors.KindNotFound, "unknown switch")
	errBadVID        = flerrors.New(flerrors.KindValidation, "vlan id must be in [2,4094] or \"all\"")
	errBadBody       = flerrors.New(flerrors.KindValidation, "invalid request body")
)

func writeResult(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err's flerrors.Kind to a REST status code (§7) and writes
// the failure envelope. Errors not tagged with a Kind surface as 400.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(flerrors.GetKind(err).HTTPStatus())
	_ = json.NewEncoder(w).Encode(map[string]string{"result": "failure", "details": err.Error()})
}
