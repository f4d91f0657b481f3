package routecache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/location-evaluator/internal/routing"
)

func TestKeyBucketsOriginCoordinates(t *testing.T) {
	dep := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC) // a Monday
	a := NewKey(32.776701, -96.796989, "325 N St Paul St, Dallas, TX", routing.ModeDriving, dep)
	b := NewKey(32.780000, -96.800000, "325 N St Paul St, Dallas, TX", routing.ModeDriving, dep)
	c := NewKey(32.830000, -96.800000, "325 N St Paul St, Dallas, TX", routing.ModeDriving, dep)

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), c.String())
}

func TestKeyBucketsDepartureTime(t *testing.T) {
	base := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	a := NewKey(32.78, -96.80, "addr", routing.ModeDriving, base)
	b := NewKey(32.78, -96.80, "addr", routing.ModeDriving, base.Add(14*time.Minute))
	c := NewKey(32.78, -96.80, "addr", routing.ModeDriving, base.Add(15*time.Minute))
	d := NewKey(32.78, -96.80, "addr", routing.ModeDriving, base.AddDate(0, 0, 1))

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), c.String())
	assert.NotEqual(t, a.String(), d.String(), "weekday is part of the bucket")
	assert.Contains(t, a.String(), "mon-0830")
}

func TestKeyAddressHashInvalidatesOnEdit(t *testing.T) {
	dep := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	a := NewKey(32.78, -96.80, "100 Main St", routing.ModeDriving, dep)
	b := NewKey(32.78, -96.80, "100 Main Street", routing.ModeDriving, dep)
	assert.NotEqual(t, a.String(), b.String())
}

func TestKeyDistinguishesModes(t *testing.T) {
	dep := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	a := NewKey(32.78, -96.80, "addr", routing.ModeDriving, dep)
	b := NewKey(32.78, -96.80, "addr", routing.ModeTransit, dep)
	assert.NotEqual(t, a.String(), b.String())
}
