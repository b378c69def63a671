package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"pairhunter/internal/scanner"
	"pairhunter/pkg/model"
)

func TestExitCodeFor(t *testing.T) {
	withSignal := &model.ScreenReport{Results: []model.PairResult{
		{Status: model.StatusSignal},
		{Status: model.StatusFiltered},
	}}
	noSignal := &model.ScreenReport{Results: []model.PairResult{
		{Status: model.StatusNoSignal},
		{Status: model.StatusSkipped},
	}}

	tests := []struct {
		name string
		rep  *model.ScreenReport
		err  error
		want int
	}{
		{"signals found", withSignal, nil, exitOK},
		{"no qualifying pairs", noSignal, nil, exitNoSignal},
		{"empty report", &model.ScreenReport{}, nil, exitNoSignal},
		{"cancelled without signals", &model.ScreenReport{Cancelled: true, Results: noSignal.Results}, nil, exitNoSignal},
		{"cancelled after a signal", &model.ScreenReport{Cancelled: true, Results: withSignal.Results}, nil, exitOK},
		{"upstream outage", nil, scanner.ErrUpstreamUnavailable, exitUpstream},
		{"wrapped upstream outage", noSignal, fmt.Errorf("screening energy: %w", scanner.ErrUpstreamUnavailable), exitUpstream},
		{"usage error", nil, errors.New("choose a universe"), exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.rep, tt.err))
		})
	}
}

func TestExitCodeError(t *testing.T) {
	silent := &exitCodeError{code: exitNoSignal}
	assert.Equal(t, "exit 2", silent.Error())
	assert.Nil(t, silent.Unwrap())

	loud := &exitCodeError{code: exitCodeFor(nil, scanner.ErrUpstreamUnavailable), err: scanner.ErrUpstreamUnavailable}
	var wrapped error = fmt.Errorf("run: %w", loud)

	var ec *exitCodeError
	assert.True(t, errors.As(wrapped, &ec))
	assert.Equal(t, exitUpstream, ec.code)
	assert.ErrorIs(t, wrapped, scanner.ErrUpstreamUnavailable)
}
