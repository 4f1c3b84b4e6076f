// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ginx"
	"github.com/luxfi/ginx/internal/storage"
)

func testParams(t *testing.T) ginx.Parameters {
	t.Helper()
	params, err := ginx.NewParametersFromLiteral(ginx.ParametersLiteral{
		LogN:     10,
		Q:        0x7fff801,
		LogBaseG: 7,
		DigitsG:  4,
		NLWE:     8,
		QLWE:     2048,
		Sigma:    3.19,
	})
	require.NoError(t, err)
	return params
}

func TestServerRotate(t *testing.T) {
	params := testParams(t)
	store := storage.NewMemoryStorage(512)
	defer store.Close()

	srv := httptest.NewServer(New(Config{}, params, store, nil).Handler())
	defer srv.Close()

	kg := ginx.NewKeyGenerator(params)
	skNTT := kg.GenRingSecretKey()
	skLWE := kg.GenLWEKey()
	ak, err := kg.GenAccKey(skNTT, skLWE)
	require.NoError(t, err)

	upload := func(t *testing.T, path string, data []byte) string {
		resp, err := http.Post(srv.URL+path, "application/octet-stream", bytes.NewReader(data))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out StoreBlobResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.NotEmpty(t, out.Handle)
		return out.Handle
	}

	akData, err := ak.MarshalBinary()
	require.NoError(t, err)
	keyHandle := upload(t, "/v1/keys", akData)

	tv := params.RingQ().NewPoly()
	for j := 0; j < params.N(); j++ {
		tv.Coeffs[0][j] = uint64(j)
	}
	acc := ginx.NewAccumulator(params, tv)
	accData, err := acc.MarshalBinary()
	require.NoError(t, err)
	accHandle := upload(t, "/v1/accumulators", accData)

	mask := make([]uint64, params.NLWE())
	for i := range mask {
		mask[i] = uint64(i*131+17) % params.QLWE()
	}

	reqBody, err := json.Marshal(RotateRequest{
		KeyHandle: keyHandle,
		AccHandle: accHandle,
		Mask:      mask,
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/v1/rotate", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated RotateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rotated))
	require.NotEmpty(t, rotated.ResultHandle)
	require.NotEqual(t, accHandle, rotated.ResultHandle)

	// The result blob decodes into a valid accumulator matching an
	// in-process rotation of the same inputs.
	blobResp, err := http.Get(srv.URL + "/v1/blobs/" + rotated.ResultHandle)
	require.NoError(t, err)
	defer blobResp.Body.Close()
	require.Equal(t, http.StatusOK, blobResp.StatusCode)

	var got ginx.Ciphertext
	data := new(bytes.Buffer)
	_, err = data.ReadFrom(blobResp.Body)
	require.NoError(t, err)
	require.NoError(t, got.UnmarshalBinary(data.Bytes()))
	require.True(t, got.IsNTT)

	want := acc.CopyNew()
	require.NoError(t, ginx.NewEvaluator(params).BlindRotate(ak, mask, want))
	require.Equal(t, want.Value[0].Coeffs, got.Value[0].Coeffs)
	require.Equal(t, want.Value[1].Coeffs, got.Value[1].Coeffs)
}

func TestServerRotateUnknownHandle(t *testing.T) {
	params := testParams(t)
	store := storage.NewMemoryStorage(64)
	defer store.Close()

	srv := httptest.NewServer(New(Config{}, params, store, nil).Handler())
	defer srv.Close()

	reqBody, err := json.Marshal(RotateRequest{
		KeyHandle: "deadbeef",
		AccHandle: "deadbeef",
		Mask:      make([]uint64, params.NLWE()),
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/v1/rotate", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerHealth(t *testing.T) {
	params := testParams(t)
	store := storage.NewMemoryStorage(64)
	defer store.Close()

	srv := httptest.NewServer(New(Config{}, params, store, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	require.Equal(t, "ok", status["status"])
	require.Equal(t, false, status["queue"])
}
