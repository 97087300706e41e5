package manifest_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/service/manifest"
)

func TestParseDeviceContextHeaderPrecedesQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/manifest?project=from-query&platform=android&version=from-query&channel=from-query", nil)
	r.Header.Set("x-app-project", "from-header")
	r.Header.Set("x-app-platform", "ios")
	r.Header.Set("x-app-runtime-version", "from-header-version")
	r.Header.Set("x-app-channel-name", "from-header-channel")

	dc, err := manifest.ParseDeviceContext(r)
	require.NoError(t, err)
	require.Equal(t, "from-header", dc.ApplicationID)
	require.Equal(t, "ios", dc.Platform)
	require.Equal(t, "from-header-version", dc.RuntimeVersion)
	require.Equal(t, "from-header-channel", dc.ReleaseChannel)
	require.Equal(t, "0", dc.ProtocolVersion)
	require.False(t, dc.ExpectSignature)
}

func TestParseDeviceContextFallsBackToQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/manifest?project=myapp&platform=android&version=1.0.0&channel=production", nil)

	dc, err := manifest.ParseDeviceContext(r)
	require.NoError(t, err)
	require.Equal(t, "myapp", dc.ApplicationID)
	require.Equal(t, "android", dc.Platform)
}

func TestParseDeviceContextMissingPlatformIsInvalid(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/manifest?project=myapp&version=1.0.0&channel=production", nil)

	_, err := manifest.ParseDeviceContext(r)
	require.ErrorIs(t, err, apperr.ErrInputInvalid)
}

func TestParseDeviceContextInvalidPlatformValueIsInvalid(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/manifest?project=myapp&platform=windows&version=1.0.0&channel=production", nil)

	_, err := manifest.ParseDeviceContext(r)
	require.ErrorIs(t, err, apperr.ErrInputInvalid)
}

func TestParseDeviceContextExpectSignatureParsesBool(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/manifest?project=myapp&platform=ios&version=1.0.0&channel=production", nil)
	r.Header.Set("x-app-expect-signature", "true")

	dc, err := manifest.ParseDeviceContext(r)
	require.NoError(t, err)
	require.True(t, dc.ExpectSignature)
}
