package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sparrowryan/sb-rate-parity/config"
)

func TestPoliteness(t *testing.T) {
	t.Parallel()

	t.Run("equal min and max still pauses for min", func(t *testing.T) {
		t.Parallel()

		s := &Session{stealth: config.StealthConfig{
			RandomDelayMin: 20 * time.Millisecond,
			RandomDelayMax: 20 * time.Millisecond,
		}}

		start := time.Now()
		s.Politeness(context.Background())
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("zero bounds skip the pause", func(t *testing.T) {
		t.Parallel()

		s := &Session{}
		start := time.Now()
		s.Politeness(context.Background())
		assert.Less(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("cancelled context cuts the pause short", func(t *testing.T) {
		t.Parallel()

		s := &Session{stealth: config.StealthConfig{
			RandomDelayMin: 5 * time.Second,
			RandomDelayMax: 5 * time.Second,
		}}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		s.Politeness(ctx)
		assert.Less(t, time.Since(start), time.Second)
	})
}
