package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/shelfkeeper/internal/circulation"
	"github.com/mmynk/shelfkeeper/internal/testutil"
)

func TestNewSweeper(t *testing.T) {
	engine, err := circulation.New(testutil.NewStore(t), circulation.DefaultConfig())
	require.NoError(t, err)

	c, err := newSweeper(engine, "")
	require.NoError(t, err)
	assert.Nil(t, c, "empty schedule disables the sweep")

	_, err = newSweeper(engine, "not a schedule")
	assert.Error(t, err)

	c, err = newSweeper(engine, "@every 1h")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/library.v1.CirculationService/Checkout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
