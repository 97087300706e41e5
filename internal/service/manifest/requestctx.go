package manifest

import (
	"net/http"
	"strconv"

	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/model"
)

// DeviceContext is the device request's resolved context (C4): every
// field that drives upload selection and response shaping, read with
// strict header > query > path precedence (spec.md §4.4).
type DeviceContext struct {
	ApplicationID    string
	Platform         string
	RuntimeVersion   string
	ReleaseChannel   string
	ProtocolVersion  string
	ExpectSignature  bool
	ClientID         string
	EmbeddedUpdateID string
	CurrentUpdateID  string
}

// ParseDeviceContext extracts a DeviceContext from r, consulting headers
// first, then query parameters, then (for application id and release
// channel, which the path form of the manifest route carries) path
// values set by the router's wildcard segments.
func ParseDeviceContext(r *http.Request) (DeviceContext, error) {
	dc := DeviceContext{}

	dc.ApplicationID = firstNonEmpty(r.Header.Get("x-app-project"), r.URL.Query().Get("project"), r.PathValue("app"))
	if dc.ApplicationID == "" {
		return DeviceContext{}, apperr.InvalidField("project")
	}

	dc.Platform = firstNonEmpty(r.Header.Get("x-app-platform"), r.URL.Query().Get("platform"))
	if dc.Platform != string(model.PlatformIOS) && dc.Platform != string(model.PlatformAndroid) {
		return DeviceContext{}, apperr.InvalidField("platform")
	}

	dc.RuntimeVersion = firstNonEmpty(r.Header.Get("x-app-runtime-version"), r.URL.Query().Get("version"))
	if dc.RuntimeVersion == "" {
		return DeviceContext{}, apperr.InvalidField("version")
	}

	dc.ReleaseChannel = firstNonEmpty(r.Header.Get("x-app-channel-name"), r.URL.Query().Get("channel"), r.PathValue("channel"))
	if dc.ReleaseChannel == "" {
		return DeviceContext{}, apperr.InvalidField("channel")
	}

	dc.ProtocolVersion = firstNonEmpty(r.Header.Get("x-app-protocol-version"), "0")
	dc.ExpectSignature, _ = strconv.ParseBool(r.Header.Get("x-app-expect-signature"))
	dc.ClientID = r.Header.Get("x-eas-client-id")
	dc.EmbeddedUpdateID = r.Header.Get("x-app-embedded-update-id")
	dc.CurrentUpdateID = r.Header.Get("x-app-current-update-id")

	return dc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
