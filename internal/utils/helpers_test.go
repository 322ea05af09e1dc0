package utils

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID("run")
	b := GenerateID("run")
	assert.True(t, strings.HasPrefix(a, "run-"))
	assert.Len(t, a, len("run-")+36)
	assert.NotEqual(t, a, b)
}

func TestWriteJSONResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSONResponse(rec, map[string]int{"generation": 3}))

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body["generation"])
}

func TestLookupBool(t *testing.T) {
	tests := []struct {
		in        string
		want      bool
		wantKnown bool
	}{
		{"true", true, true},
		{" YES ", true, true},
		{"1", true, true},
		{"on", true, true},
		{"false", false, true},
		{"Off", false, true},
		{"0", false, true},
		{"", false, false},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		got, known := LookupBool(tt.in)
		assert.Equal(t, tt.want, got, "value %q", tt.in)
		assert.Equal(t, tt.wantKnown, known, "value %q", tt.in)
	}
}

func TestGetenvTrim(t *testing.T) {
	t.Setenv("PULSE_SYSMON_TEST_VALUE", "  /host/proc \n")
	assert.Equal(t, "/host/proc", GetenvTrim("PULSE_SYSMON_TEST_VALUE"))
	assert.Equal(t, "", GetenvTrim("PULSE_SYSMON_TEST_UNSET"))
}

func TestNormalizeVersion(t *testing.T) {
	assert.Equal(t, "1.2.3", NormalizeVersion(" v1.2.3"))
	assert.Equal(t, "dev", NormalizeVersion("dev"))
}
