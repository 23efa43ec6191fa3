package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-anonymizing-proxy/internal/span"
)

func TestDetectPHI_ICD10(t *testing.T) {
	out := DetectPHI("diagnosis code E11.9 recorded", typeSet(span.TypeHealth))
	found := false
	for _, e := range out {
		if e.Source == "icd10" {
			assert.Equal(t, "E11.9", e.Text)
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectPHI_UnselectedTypeYieldsNothing(t *testing.T) {
	out := DetectPHI("E11.9", typeSet(span.TypeEmail))
	assert.Empty(t, out)
}

func TestDetectPHI_MRNLabel(t *testing.T) {
	out := DetectPHI("MRN: AB123456", typeSet(span.TypeHealth))
	found := false
	for _, e := range out {
		if e.Source == "mrn" {
			assert.Equal(t, "AB123456", e.Text)
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectPHI_CPTIsLowConfidence(t *testing.T) {
	out := DetectPHI("procedure 99213 billed", typeSet(span.TypeHealth))
	found := false
	for _, e := range out {
		if e.Source == "cpt" {
			assert.Equal(t, 0.4, e.Score)
			found = true
		}
	}
	assert.True(t, found)
}
