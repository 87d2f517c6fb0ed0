package main

import (
	"path/filepath"
	"testing"

	"roi-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Error Code Check Tests
// ==========================

func TestCheckErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		activity registry.Activity
		problems []string
	}{
		{
			name:     "business codes without retries",
			activity: registry.Activity{ID: "validate-roi-input", ErrorCodes: []string{"INVALID_ROI_INPUT"}},
		},
		{
			name:     "retryable code with retries",
			activity: registry.Activity{ID: "calculate-roi-estimate", ErrorCodes: []string{"SESSION_STORE_FAILED"}, Retries: 3},
		},
		{
			name:     "retryable code without retries",
			activity: registry.Activity{ID: "calculate-roi-estimate", ErrorCodes: []string{"SESSION_STORE_FAILED"}},
			problems: []string{"calculate-roi-estimate: declares retryable SESSION_STORE_FAILED but retries is 0"},
		},
		{
			name:     "unknown code",
			activity: registry.Activity{ID: "build-roi-summary", ErrorCodes: []string{"INVALID_ROI_INPUT", "PAYMENT_DECLINED"}},
			problems: []string{"build-roi-summary: unknown error code PAYMENT_DECLINED"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &registry.ActivityRegistry{Activities: []registry.Activity{tt.activity}}
			assert.Equal(t, tt.problems, checkErrorCodes(reg))
		})
	}
}

func TestRunValidate_ShippedRegistry(t *testing.T) {
	path := filepath.Join("..", "..", "..", "configs", "activity-registry.json")

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	assert.Empty(t, checkErrorCodes(reg))

	require.NoError(t, runValidate([]string{"-path", path}))
}
