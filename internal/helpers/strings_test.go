package helpers_test

import (
	"testing"

	"github.com/isometry/smartsheet-webhook-app/internal/helpers"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	testCases := []struct {
		Name     string
		Input    *string
		Expected string
	}{
		{
			Name:     "nil_string",
			Input:    nil,
			Expected: "",
		},
		{
			Name:     "empty_string",
			Input:    new(string),
			Expected: "",
		},
		{
			Name:     "value",
			Input:    helpers.Ptr("s3cr3t"),
			Expected: "s3cr3t",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Expected, helpers.String(tc.Input))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", helpers.Truncate("abc", 5))
	assert.Equal(t, "ab...", helpers.Truncate("abcdefgh", 5))
}

func TestLowerKeys(t *testing.T) {
	headers := helpers.LowerKeys(map[string]string{
		"Smartsheet-Hook-Challenge": "abc123",
		"content-type":              "application/json",
	})

	assert.Equal(t, map[string]string{
		"smartsheet-hook-challenge": "abc123",
		"content-type":              "application/json",
	}, headers)
}
