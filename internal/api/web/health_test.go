//go:build unit

package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/khetisetu/notification-event-service/internal/domain"
)

type fakeRepo struct {
	count    int64
	countErr error
}

func (f *fakeRepo) Create(_ context.Context, n domain.Notification) (domain.Notification, error) {
	return n, nil
}

func (f *fakeRepo) MarkSent(_ context.Context, _ uint64) error {
	return nil
}

func (f *fakeRepo) MarkFailed(_ context.Context, _ uint64, _ string) error {
	return nil
}

func (f *fakeRepo) GetByEventID(_ context.Context, _ string) (domain.Notification, error) {
	return domain.Notification{}, nil
}

func (f *fakeRepo) Count(_ context.Context) (int64, error) {
	return f.count, f.countErr
}

func newServer(repo *fakeRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	server := gin.New()
	NewHealthHandler(repo).RegisterRoutes(server)
	return server
}

func TestHealth(t *testing.T) {
	t.Parallel()

	t.Run("数据库可达", func(t *testing.T) {
		server := newServer(&fakeRepo{count: 42})

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		server.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t,
			`{"status":"OK","kafka":"Consumer Running","notifications":42}`,
			recorder.Body.String())
	})

	t.Run("数据库不可达时降级但仍返回200", func(t *testing.T) {
		server := newServer(&fakeRepo{countErr: errors.New("db down")})

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		server.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t,
			`{"status":"ERROR","kafka":"Consumer Running","details":"db down"}`,
			recorder.Body.String())
	})
}
