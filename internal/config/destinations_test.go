package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDestinations(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "destinations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDestinations(t *testing.T) {
	path := writeDestinations(t, `
work:
  - name: Office
    address: 100 Main St, Dallas, TX
    schedule:
      - days: Mon-Fri
        arrival_time: "09:00"
        departure_time: "17:30"
errands:
  - name: Grocery
    address: 200 Elm St, Dallas, TX
    lat: 32.78
    lon: -96.79
    schedule:
      - days: Sat
        arrival_time: "10:00"
`)

	dests, err := LoadDestinations(path)
	require.NoError(t, err)
	require.Len(t, dests, 2)

	byName := map[string]int{}
	for i, d := range dests {
		byName[d.Name] = i
	}

	office := dests[byName["Office"]]
	assert.Equal(t, "work", office.Category)
	assert.Equal(t, "100 Main St, Dallas, TX", office.Address)
	require.Len(t, office.Schedule, 1)
	assert.Equal(t, "Mon-Fri", office.Schedule[0].Days)
	assert.Equal(t, "09:00", office.Schedule[0].ArrivalTime)
	assert.Zero(t, office.Lat)

	grocery := dests[byName["Grocery"]]
	assert.Equal(t, "errands", grocery.Category)
	assert.Equal(t, 32.78, grocery.Lat)
	assert.Equal(t, -96.79, grocery.Lon)
}

func TestLoadDestinationsErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing file", "", "read destinations"},
		{"empty map", "{}\n", "no categories"},
		{"missing address", "work:\n  - name: Office\n    schedule:\n      - days: Mon\n        arrival_time: \"09:00\"\n", "missing address"},
		{"missing name", "work:\n  - address: 100 Main St\n    schedule:\n      - days: Mon\n        arrival_time: \"09:00\"\n", "missing name"},
		{"missing schedule", "work:\n  - name: Office\n    address: 100 Main St\n", "no schedule"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "destinations.yaml")
			if tc.name != "missing file" {
				require.NoError(t, os.WriteFile(path, []byte(tc.body), 0o644))
			}
			_, err := LoadDestinations(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
