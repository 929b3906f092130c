package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateAllContinuesPastFailedLeague(t *testing.T) {
	var ran []string
	gap := errors.New("LCK chain aborted")

	err := rateAll([]string{"lck", "lec", "lpl"}, func(league string) error {
		ran = append(ran, league)
		if league == "lck" {
			return gap
		}
		return nil
	})

	assert.Equal(t, []string{"lck", "lec", "lpl"}, ran)
	assert.ErrorIs(t, err, gap)
}

func TestRateAllNoFailures(t *testing.T) {
	assert.NoError(t, rateAll([]string{"lck", "lec"}, func(string) error { return nil }))
	assert.NoError(t, rateAll(nil, func(string) error { return errors.New("unused") }))
}
