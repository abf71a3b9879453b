package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bagel-gateway-sol/internal/chain"
	"bagel-gateway-sol/internal/confidential"
	"bagel-gateway-sol/internal/svc"
)

type fakeRegistry struct {
	vault      *chain.MasterVault
	businesses []*chain.BusinessEntry
	employees  []*chain.EmployeeEntry
	err        error
}

func (f *fakeRegistry) MasterVault(context.Context) (*chain.MasterVault, error) {
	return f.vault, f.err
}

func (f *fakeRegistry) Businesses(context.Context) ([]*chain.BusinessEntry, error) {
	return f.businesses, f.err
}

func (f *fakeRegistry) Employees(context.Context, uint64) ([]*chain.EmployeeEntry, error) {
	return f.employees, f.err
}

func TestVaultHandler(t *testing.T) {
	ctx := &svc.ServiceContext{Registry: &fakeRegistry{
		vault: &chain.MasterVault{
			Authority:         "auth111",
			TotalBalance:      1000,
			NextBusinessIndex: 3,
			IsActive:          true,
			ConfidentialMint:  "mint111",
		},
	}}

	rec := httptest.NewRecorder()
	VaultHandler(ctx)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/vault", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp VaultResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "auth111", resp.Authority)
	assert.Equal(t, uint64(1000), resp.TotalBalance)
	assert.Equal(t, uint64(3), resp.NextBusinessIndex)
	assert.True(t, resp.IsActive)
}

func TestVaultHandlerUpstreamError(t *testing.T) {
	ctx := &svc.ServiceContext{Registry: &fakeRegistry{err: errors.New("rpc down")}}

	rec := httptest.NewRecorder()
	VaultHandler(ctx)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/vault", nil))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errCodeRegistryFetch, body.Code)
}

func TestBusinessesHandler(t *testing.T) {
	ctx := &svc.ServiceContext{Registry: &fakeRegistry{
		businesses: []*chain.BusinessEntry{
			{EntryIndex: 0, NextEmployeeIndex: 2, IsActive: true, EncryptedBalance: confidential.NewHandle(42, 0)},
			{EntryIndex: 1, IsActive: false},
		},
	}}

	rec := httptest.NewRecorder()
	BusinessesHandler(ctx)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/businesses", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp BusinessListResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Businesses, 2)
	assert.Equal(t, "42", resp.Businesses[0].BalanceHandle)
	assert.Equal(t, uint64(2), resp.Businesses[0].NextEmployeeIndex)
	assert.Equal(t, "0", resp.Businesses[1].BalanceHandle)
}

func TestClassifyResolveError(t *testing.T) {
	status, code := classifyResolveError(confidential.ErrUserRejected)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, errCodeUserRejected, code)

	status, code = classifyResolveError(confidential.ErrAuthDenied)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, errCodeAuthDenied, code)

	status, code = classifyResolveError(errors.New("rpc timeout"))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, errCodeResolveFailed, code)
}
