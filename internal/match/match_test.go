package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExactMatch(t *testing.T) {
	opts := Options("House, Gregory", "Grey, Meredith")

	got, ok := Resolve("Grey, Meredith", opts)
	require.True(t, ok)
	assert.Equal(t, "Grey, Meredith", got.Value)
}

func TestResolveCaseInsensitive(t *testing.T) {
	opts := Options("Jefferson Hospital")

	got, ok := Resolve("jefferson hospital", opts)
	require.True(t, ok)
	assert.Equal(t, "Jefferson Hospital", got.Value)
}

func TestResolveCandidateSubstringOfOption(t *testing.T) {
	opts := Options("Jefferson Hospital")

	got, ok := Resolve("jefferson", opts)
	require.True(t, ok)
	assert.Equal(t, "Jefferson Hospital", got.Value)
}

func TestResolveOptionSubstringOfCandidate(t *testing.T) {
	opts := Options("House, Gregory")

	got, ok := Resolve("Dr. House, Gregory MD", opts)
	require.True(t, ok)
	assert.Equal(t, "House, Gregory", got.Value)
}

func TestResolveNoMatch(t *testing.T) {
	opts := Options("Jefferson Hospital", "PPTH Orthopedics")

	_, ok := Resolve("Mars Clinic", opts)
	assert.False(t, ok)
}

func TestResolveTieGoesToCatalogOrder(t *testing.T) {
	// Both contain "hospital"; the earlier option wins the substring tier.
	opts := Options("Jefferson Hospital", "Mercy Hospital")

	got, ok := Resolve("hospital", opts)
	require.True(t, ok)
	assert.Equal(t, "Jefferson Hospital", got.Value)
}

func TestResolveExactBeatsSubstring(t *testing.T) {
	opts := []Option{
		{Value: "NEW PATIENT EXTENDED"},
		{Value: "NEW"},
	}

	got, ok := Resolve("NEW", opts)
	require.True(t, ok)
	assert.Equal(t, "NEW", got.Value)
}

func TestResolveLabels(t *testing.T) {
	opts := []Option{{Value: "ESTABLISHED", Label: "Established patient"}}

	got, ok := Resolve("established patient", opts)
	require.True(t, ok)
	assert.Equal(t, "ESTABLISHED", got.Value)
}

func TestResolveEmptyCandidate(t *testing.T) {
	_, ok := Resolve("   ", Options("anything"))
	assert.False(t, ok)
}
