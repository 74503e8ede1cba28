package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(_ context.Context) error {
	return f.err
}

func TestHealthHandler_LivenessProbe(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewHealthHandler(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/health/live", nil)

	handler.LivenessProbe(c)

	if w.Code != http.StatusOK {
		t.Errorf("LivenessProbe() status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() == "" {
		t.Error("LivenessProbe() returned empty body")
	}
}

func TestHealthHandler_ReadinessProbe(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		db       Pinger
		redis    Pinger
		wantCode int
	}{
		{name: "no dependencies", wantCode: http.StatusOK},
		{name: "healthy dependencies", db: &fakePinger{}, redis: &fakePinger{}, wantCode: http.StatusOK},
		{name: "database down", db: &fakePinger{err: errors.New("refused")}, wantCode: http.StatusServiceUnavailable},
		{name: "redis down", db: &fakePinger{}, redis: &fakePinger{err: errors.New("refused")}, wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.db, tt.redis)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/health/ready", nil)

			handler.ReadinessProbe(c)

			if w.Code != tt.wantCode {
				t.Errorf("ReadinessProbe() status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}
