package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanRunStep(t *testing.T) {
	tests := []struct {
		name        string
		currentStep int
		step        int
		want        bool
	}{
		{"Current step runs", 3, 3, true},
		{"Completed step reruns", 5, 2, true},
		{"Future step is blocked", 2, 5, false},
		{"Next step is blocked until reached", 1, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canRunStep(tt.currentStep, tt.step))
		})
	}
}

func TestAdvanceStep(t *testing.T) {
	tests := []struct {
		name        string
		currentStep int
		completed   int
		want        int
	}{
		{"Completing the current step advances", 3, 3, 4},
		{"Re-completing an old step does not regress", 5, 2, 5},
		{"Last step caps at done", 7, 7, StepDone},
		{"Done stays done", StepDone, 7, StepDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, advanceStep(tt.currentStep, tt.completed))
		})
	}
}

func TestLocks(t *testing.T) {
	locks := NewLocks()

	// Two goroutines on the same key serialize; the counter never races
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("customer-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}
