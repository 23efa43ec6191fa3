package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-anonymizing-proxy/internal/span"
)

func TestDetectAddress_StreetLine(t *testing.T) {
	out := DetectAddress("123 Main Street\nBeverly Hills, CA 90210", typeSet(span.TypeAddress))
	assert.Len(t, out, 1)
	assert.Equal(t, "street_line", out[0].Source)
	assert.Equal(t, 0.85, out[0].Score)
}

func TestDetectAddress_NoQualifyingLineYieldsNothing(t *testing.T) {
	out := DetectAddress("just a regular sentence with no address", typeSet(span.TypeAddress))
	assert.Empty(t, out)
}

func TestDetectAddress_ExplicitLabel(t *testing.T) {
	out := DetectAddress("Address: 500 Oak Ave", typeSet(span.TypeAddress))
	assert.Len(t, out, 1)
	assert.Equal(t, "address_label", out[0].Source)
}

func TestDetectAddress_SuffixAndUnitLine(t *testing.T) {
	out := DetectAddress("Main Street Apt 4B", typeSet(span.TypeAddress))
	assert.Len(t, out, 1)
	assert.Equal(t, "street_unit_line", out[0].Source)
}

func TestDetectAddress_UnselectedTypeYieldsNothing(t *testing.T) {
	out := DetectAddress("123 Main Street", typeSet(span.TypeEmail))
	assert.Empty(t, out)
}

func TestDetectAddress_LowConfidenceWithoutCityStateZipFollowUp(t *testing.T) {
	out := DetectAddress("123 Main Street\nthanks for visiting", typeSet(span.TypeAddress))
	assert.Len(t, out, 1)
	assert.Equal(t, 0.65, out[0].Score)
}
