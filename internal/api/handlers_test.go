// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package api

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaoyj11/plexus/internal/ofp"
	"github.com/yaoyj11/plexus/internal/registry"
)

type fakeDatapath struct {
	id    uint64
	ports []ofp.Port
	xid   uint32
}

func (f *fakeDatapath) ID() uint64             { return f.id }
func (f *fakeDatapath) Version() ofp.Version   { return ofp.Version13 }
func (f *fakeDatapath) Ports() []ofp.Port      { return f.ports }
func (f *fakeDatapath) NumTables() int         { return 2 }
func (f *fakeDatapath) NextXID() uint32        { return atomic.AddUint32(&f.xid, 1) }
func (f *fakeDatapath) SendMessage(msg any) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := registry.New(nil)
	require.NoError(t, reg.OnSwitchJoin(&fakeDatapath{id: 1, ports: []ofp.Port{{PortNo: 1, HWAddr: net.HardwareAddr{1, 2, 3, 4, 5, 6}}}}))
	t.Cleanup(func() { reg.OnSwitchLeave(1) })
	return NewServer(reg, ":0")
}

func doRequest(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHandlePost_AddAddress(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/router/0000000000000001", map[string]string{"address": "10.0.0.1/24"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []switchCommandResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Len(t, resp[0].CommandResult, 1)
	assert.Equal(t, "success", resp[0].CommandResult[0].Result)
}

func TestHandleGet_UnknownSwitchReturns404(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/router/ffffffffffffffff", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGet_BadSwitchIDReturns404(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/router/not-a-switch-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePost_BadVIDReturns400(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/router/0000000000000001/1", map[string]string{"address": "10.0.0.1/24"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePost_UnknownFieldRejected(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/router/0000000000000001", map[string]string{"unknown_field": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGet_ReflectsAddedAddress(t *testing.T) {
	s := newTestServer(t)
	doRequest(s, http.MethodPost, "/router/0000000000000001", map[string]string{"address": "10.0.0.1/24"})

	rec := doRequest(s, http.MethodGet, "/router/0000000000000001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []switchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "0000000000000001", resp[0].SwitchID)
}

func TestHandleDelete_AddressAll(t *testing.T) {
	s := newTestServer(t)
	doRequest(s, http.MethodPost, "/router/0000000000000001", map[string]string{"address": "10.0.0.1/24"})

	req := map[string]any{"address_id": "all"}
	rec := doRequest(s, http.MethodDelete, "/router/0000000000000001", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []switchCommandResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Len(t, resp[0].CommandResult, 1)
	assert.Equal(t, "success", resp[0].CommandResult[0].Result)
}

func TestMetricsEndpoint_Served(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
