package draft

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCloneRoundTrip(t *testing.T) {
	src := map[string]interface{}{
		"personalDetails": map[string]interface{}{
			"firstName": "",
			"lastName":  "Doe",
			"middle":    nil,
		},
		"teamMembers": []interface{}{
			map[string]interface{}{"email": "a@b.co", "role": ""},
			"placeholder",
		},
		"count":    float64(3),
		"accepted": false,
	}

	got := Clone(src)

	if diff := cmp.Diff(src, got); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}

	// 克隆后改原树，副本不能跟着变
	src["personalDetails"].(map[string]interface{})["lastName"] = "Changed"
	src["teamMembers"].([]interface{})[1] = "mutated"

	require.Equal(t, "Doe", got["personalDetails"].(map[string]interface{})["lastName"])
	require.Equal(t, "placeholder", got["teamMembers"].([]interface{})[1])
}

func TestClonePreservesEmptyAndNilLeaves(t *testing.T) {
	src := map[string]interface{}{
		"empty": "",
		"null":  nil,
	}

	got := Clone(src)

	v, ok := got["empty"]
	require.True(t, ok)
	require.Equal(t, "", v)

	v, ok = got["null"]
	require.True(t, ok)
	require.Nil(t, v)
}

func TestCloneNil(t *testing.T) {
	require.Nil(t, Clone(nil))
}
