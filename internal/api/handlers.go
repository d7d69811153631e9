// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gorilla/mux"

	flerrors "github.com/yaoyj11/plexus/internal/errors"
	"github.com/yaoyj11/plexus/internal/router"
	"github.com/yaoyj11/plexus/internal/vlanrouter"
)

var switchIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{16}$`)
var vidPattern = regexp.MustCompile(`^[0-9]{1,4}$`)

// switchResponse is the GET response shape, {switch_id,
// internal_network:[...]} (§6).
type switchResponse struct {
	SwitchID        string      `json:"switch_id"`
	InternalNetwork interface{} `json:"internal_network"`
}

// switchCommandResponse is the POST/DELETE response shape, {switch_id,
// command_result:[...]} (§6).
type switchCommandResponse struct {
	SwitchID      string                       `json:"switch_id"`
	CommandResult []vlanrouter.CommandResult `json:"command_result"`
}

func (s *Server) handleNoVlan(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, "")
}

func (s *Server) handleWithVlan(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.dispatch(w, r, vars["vid"])
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, vidRaw string) {
	swRaw := mux.Vars(r)["sw"]

	routers, err := s.resolveSwitches(swRaw)
	if err != nil {
		writeError(w, err)
		return
	}

	vid, all, err := parseVID(vidRaw)
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, routers, vid, all)
	case http.MethodPost:
		s.handlePost(w, r, routers, vid, all)
	case http.MethodDelete:
		s.handleDelete(w, r, routers, vid, all)
	}
}

func (s *Server) resolveSwitches(swRaw string) ([]*router.Router, error) {
	if swRaw == "all" {
		return s.registry.All(), nil
	}
	if !switchIDPattern.MatchString(swRaw) {
		return nil, errBadSwitchID
	}
	id, err := strconv.ParseUint(swRaw, 16, 64)
	if err != nil {
		return nil, errBadSwitchID
	}
	rt, ok := s.registry.Lookup(id)
	if !ok {
		return nil, errUnknownSwitch
	}
	return []*router.Router{rt}, nil
}

func parseVID(raw string) (vid uint16, all bool, err error) {
	if raw == "" {
		return vlanrouter.VlanIDNone, false, nil
	}
	if raw == "all" {
		return 0, true, nil
	}
	if !vidPattern.MatchString(raw) {
		return 0, false, errBadVID
	}
	n, convErr := strconv.Atoi(raw)
	if convErr != nil || (n != 0 && (n < router.MinVlanID || n > router.MaxVlanID)) {
		return 0, false, errBadVID
	}
	return uint16(n), false, nil
}

func (s *Server) vlanRoutersFor(rt *router.Router, vid uint16, all bool) []*vlanrouter.VlanRouter {
	if all {
		return rt.All()
	}
	vr, err := rt.GetVlanRouter(vid, false, false)
	if err != nil {
		return nil
	}
	return []*vlanrouter.VlanRouter{vr}
}

func (s *Server) handleGet(w http.ResponseWriter, routers []*router.Router, vid uint16, all bool) {
	type rendered struct {
		Addresses []vlanrouter.AddressView `json:"address"`
		Routes    []vlanrouter.RouteView   `json:"route"`
	}

	responses := make([]switchResponse, 0, len(routers))
	for _, rt := range routers {
		network := map[string]rendered{}
		for _, vr := range s.vlanRoutersFor(rt, vid, all) {
			addrs, rts := vr.GetData()
			network[strconv.FormatUint(uint64(vr.VlanID()), 10)] = rendered{Addresses: addrs, Routes: rts}
		}
		responses = append(responses, switchResponse{
			SwitchID:        dpidString(rt.DatapathID()),
			InternalNetwork: network,
		})
	}
	writeResult(w, responses)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request, routers []*router.Router, vid uint16, all bool) {
	var req vlanrouter.SetDataRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, errBadBody)
		return
	}

	responses := make([]switchCommandResponse, 0, len(routers))
	for _, rt := range routers {
		bare := req.Bare != nil && *req.Bare
		var results []vlanrouter.CommandResult
		if all {
			for _, vr := range rt.All() {
				results = append(results, vr.SetData(req)...)
			}
		} else {
			vr, err := rt.GetVlanRouter(vid, true, bare)
			if err != nil {
				results = []vlanrouter.CommandResult{{Result: "failure", Details: err.Error()}}
			} else {
				results = vr.SetData(req)
			}
		}
		responses = append(responses, switchCommandResponse{SwitchID: dpidString(rt.DatapathID()), CommandResult: results})
	}
	writeResult(w, responses)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, routers []*router.Router, vid uint16, all bool) {
	var req vlanrouter.DeleteRequest
	if err := decodeDeleteRequest(r, &req); err != nil {
		writeError(w, flerrors.Wrap(err, flerrors.KindValidation, "invalid delete request"))
		return
	}

	responses := make([]switchCommandResponse, 0, len(routers))
	for _, rt := range routers {
		var results []vlanrouter.CommandResult
		for _, vr := range s.vlanRoutersFor(rt, vid, all) {
			results = append(results, vr.DeleteData(req)...)
		}
		rt.GCEmptyVlanRouters()
		responses = append(responses, switchCommandResponse{SwitchID: dpidString(rt.DatapathID()), CommandResult: results})
	}
	writeResult(w, responses)
}

func dpidString(id uint64) string {
	return toHex16(id)
}

func toHex16(id uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[id&0xf]
		id >>= 4
	}
	return string(buf)
}
