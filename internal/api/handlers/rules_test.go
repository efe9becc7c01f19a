package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nexerp-ops/procmon-backend-go/internal/core/rules"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rejectingBackend struct{}

func (rejectingBackend) CreateRule(ctx context.Context, id, content, ruleType, domain string) (*rules.CompiledRule, error) {
	return nil, fmt.Errorf("unbalanced condition block")
}

func (rejectingBackend) ExecuteRule(ctx context.Context, id string, facts rules.Event) (*rules.ExecutionResult, error) {
	return nil, fmt.Errorf("rule %s not found", id)
}

func TestCreateBackendRuleRejection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	h := &Handlers{backend: rejectingBackend{}, logger: logger}

	router := gin.New()
	router.POST("/api/v1/backend/rules", h.CreateBackendRule)

	body := `{"id":"bad_rule","content":"when { then","domain":"order"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/backend/rules", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Rule backend rejected the request", resp.Error)
	assert.Contains(t, resp.Details, "unbalanced condition block")
}
