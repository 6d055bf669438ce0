package saved

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/birdscout/internal/datastore"
)

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := &datastore.SavedSearch{ID: "0b4f", Mode: "route", Name: "Coast trip"}
	WriteSummary(&buf, s)
	assert.Equal(t, "0b4f  route  Coast trip (never run)\n", buf.String())

	buf.Reset()
	at := time.Date(2026, 5, 20, 7, 30, 0, 0, time.UTC)
	s.LastRunAt = &at
	s.ResultCount = 42
	WriteSummary(&buf, s)
	assert.Equal(t, "0b4f  route  Coast trip (last run 2026-05-20 07:30:00, 42 sightings)\n", buf.String())
}
