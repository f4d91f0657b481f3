package crimedata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/location-evaluator/internal/model"
	"github.com/sells-group/location-evaluator/internal/safety"
)

var testBounds = model.Bounds{North: 32.9, South: 32.6, East: -96.6, West: -96.9}

func TestQueryParsesRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "32.900000", r.URL.Query().Get("north"))
		assert.Equal(t, "2025-01-01", r.URL.Query().Get("since"))
		w.Write([]byte(`[
			{"offense":"AGGRAVATED ASSAULT","latitude":"32.78","longitude":"-96.80","date_occurred":"2025-06-15T14:30:00Z"},
			{"offense":"THEFT OF PROPERTY","latitude":"32.79","longitude":"-96.81","date_occurred":"2025-07-01"},
			{"offense":"PUBLIC INTOXICATION","latitude":"32.77","longitude":"-96.79","date_occurred":"2025-07-02"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	incidents, err := c.Query(context.Background(), testBounds, since)
	require.NoError(t, err)
	require.Len(t, incidents, 3)

	assert.Equal(t, safety.CategoryViolent, incidents[0].Category)
	assert.InDelta(t, 32.78, incidents[0].Lat, 1e-9)
	assert.Equal(t, safety.CategoryProperty, incidents[1].Category)
	assert.Equal(t, safety.CategoryOther, incidents[2].Category)
}

func TestQuerySkipsMalformedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"offense":"THEFT","latitude":"not a number","longitude":"-96.80","date_occurred":"2025-06-15"},
			{"offense":"THEFT","latitude":"32.78","longitude":"-96.80","date_occurred":"June 15th"},
			{"offense":"THEFT","latitude":"32.78","longitude":"-96.80","date_occurred":"2025-06-15"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	incidents, err := c.Query(context.Background(), testBounds, time.Time{})
	require.NoError(t, err)
	assert.Len(t, incidents, 1)
}

func TestQueryPaginates(t *testing.T) {
	const pageSize = 2
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		var rows []record
		// Three rows total across two pages.
		for i := offset; i < 3 && i < offset+pageSize; i++ {
			rows = append(rows, record{
				Offense: "THEFT", Latitude: "32.78", Longitude: "-96.80", OccurredAt: "2025-06-15",
			})
		}
		json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithPageSize(pageSize))
	incidents, err := c.Query(context.Background(), testBounds, time.Time{})
	require.NoError(t, err)
	assert.Len(t, incidents, 3)
	assert.Equal(t, 2, pages)
}

func TestQueryNoCoverage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Query(context.Background(), testBounds, time.Time{})
	assert.ErrorIs(t, err, safety.ErrNoCoverage)
}

func TestQueryEmptyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	incidents, err := c.Query(context.Background(), testBounds, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, incidents)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		offense string
		want    safety.Category
	}{
		{"MURDER & NONNEGLIGENT MANSLAUGHTER", safety.CategoryViolent},
		{"Robbery - Business", safety.CategoryViolent},
		{"BURGLARY OF HABITATION", safety.CategoryProperty},
		{"motor vehicle theft", safety.CategoryProperty},
		{"DISORDERLY CONDUCT", safety.CategoryOther},
		{"", safety.CategoryOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.offense), "offense %q", tt.offense)
	}
}
