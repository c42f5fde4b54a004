package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTimeBucket(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected TimeBucket
	}{
		{"historical directory", "https://example.org/climate/10_minutes/air_temperature/historical/", BucketHistorical},
		{"recent directory", "https://example.org/climate/10_minutes/air_temperature/recent/", BucketRecent},
		{"now directory", "https://example.org/climate/10_minutes/air_temperature/now/", BucketNow},
		{"bare directory name", "historical", BucketHistorical},
		{"hist archive", "10minutenwerte_TU_00003_19930428_19991231_hist.zip", BucketHistorical},
		{"akt archive", "10minutenwerte_TU_00003_akt.zip", BucketRecent},
		{"now archive", "10minutenwerte_TU_00003_now.zip", BucketNow},
		{"station description", "zehn_min_tu_Beschreibung_Stationen.txt", BucketNone},
		{"unrelated path", "https://example.org/climate/10_minutes/air_temperature/meta_data/", BucketNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyTimeBucket(tc.uri))
		})
	}
}

func TestSelectArchives(t *testing.T) {
	resources := []Resource{
		{URI: "https://example.org/c/10minutenwerte_TU_00003_akt.zip"},
		{URI: "https://example.org/c/zehn_min_tu_Beschreibung_Stationen.txt"},
		{URI: "https://example.org/c/historical/"},
	}

	archives := SelectArchives(resources)
	require.Len(t, archives, 1)
	assert.Contains(t, archives[0].URI, ".zip")

	descriptions := SelectStationDescriptions(resources)
	require.Len(t, descriptions, 1)
	assert.Contains(t, descriptions[0].URI, "Beschreibung_Stationen.txt")
}

func TestResourceIsListing(t *testing.T) {
	assert.True(t, Resource{URI: "https://example.org/climate/historical/"}.IsListing())
	assert.False(t, Resource{URI: "https://example.org/climate/x_hist.zip"}.IsListing())
}
