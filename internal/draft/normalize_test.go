package draft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func businessDetails(t *testing.T, snapshot map[string]interface{}) map[string]interface{} {
	t.Helper()
	details, ok := snapshot["businessDetails"].(map[string]interface{})
	require.True(t, ok, "businessDetails missing")
	return details
}

func TestNormalizeNestedWinsOverLegacy(t *testing.T) {
	out := Normalize(map[string]interface{}{
		"companyName": "B",
		"businessDetails": map[string]interface{}{
			"companyName": "A",
		},
	})

	require.Equal(t, "A", businessDetails(t, out)["companyName"])
}

func TestNormalizeLiftsLegacyFields(t *testing.T) {
	out := Normalize(map[string]interface{}{
		"companyName": "B",
		"gstNumber":   "29ABCDE1234F1Z5",
	})

	details := businessDetails(t, out)
	require.Equal(t, "B", details["companyName"])
	require.Equal(t, "29ABCDE1234F1Z5", details["gstNumber"])
}

func TestNormalizeCountryUppercasedWithDefault(t *testing.T) {
	out := Normalize(map[string]interface{}{"country": "in"})
	require.Equal(t, "IN", businessDetails(t, out)["country"])

	out = Normalize(map[string]interface{}{
		"businessDetails": map[string]interface{}{"country": "us"},
	})
	require.Equal(t, "US", businessDetails(t, out)["country"])

	// 两边都没有时补缺省值
	out = Normalize(map[string]interface{}{})
	require.Equal(t, "IN", businessDetails(t, out)["country"])
}

func TestNormalizeAbsentStaysAbsent(t *testing.T) {
	out := Normalize(map[string]interface{}{})

	details := businessDetails(t, out)
	_, ok := details["companyName"]
	require.False(t, ok)
	_, ok = details["taxId"]
	require.False(t, ok)
}

func TestNormalizeLeavesUnrelatedFieldsAlone(t *testing.T) {
	out := Normalize(map[string]interface{}{
		"personalDetails": map[string]interface{}{"firstName": ""},
	})

	personal, ok := out["personalDetails"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "", personal["firstName"])
}
