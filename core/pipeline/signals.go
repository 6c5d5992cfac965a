package pipeline

import (
	"os"
	"os/signal"
)

// CatchInterrupts stops SIGINT from terminating the shell until the returned
// function is called.
//
// The signal is caught and discarded rather than ignored: an ignored signal
// stays ignored across exec, a caught one is reset to its default, so ^C
// still stops the programs the shell runs.
func CatchInterrupts() (stop func()) {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-interrupts:
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(interrupts)
		close(done)
	}
}
