package lifecycle

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type recordingComponent struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
	stops    int
}

func (c *recordingComponent) Start(context.Context) error {
	if c.log != nil {
		*c.log = append(*c.log, "start "+c.name)
	}
	return c.startErr
}

func (c *recordingComponent) Stop(context.Context) error {
	c.stops++
	if c.log != nil {
		*c.log = append(*c.log, "stop "+c.name)
	}
	return c.stopErr
}

func TestRuntimeStopsInReverseOrder(t *testing.T) {
	t.Parallel()

	events := make([]string, 0, 6)
	r := NewRuntime(
		&recordingComponent{name: "a", log: &events},
		&recordingComponent{name: "b", log: &events},
		&recordingComponent{name: "c", log: &events},
	)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start a", "start b", "start c", "stop c", "stop b", "stop a"}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("wrong order: got %v want %v", events, want)
	}
}

func TestRuntimeRollsBackOnStartFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	first := &recordingComponent{name: "a"}
	failing := &recordingComponent{name: "b", startErr: boom}
	never := &recordingComponent{name: "c"}

	r := NewRuntime(first, failing, never)
	err := r.Start(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected the start error, got %v", err)
	}
	if first.stops != 1 {
		t.Fatalf("started component must be rolled back, stops=%d", first.stops)
	}
	if failing.stops != 0 || never.stops != 0 {
		t.Fatalf("unstarted components must not be stopped: b=%d c=%d", failing.stops, never.stops)
	}
}

func TestRuntimeIgnoresNilComponents(t *testing.T) {
	t.Parallel()

	r := NewRuntime(nil)
	r.Register(nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestRuntimeCollectsStopErrors(t *testing.T) {
	t.Parallel()

	first := errors.New("first")
	second := errors.New("second")
	r := NewRuntime(
		&recordingComponent{name: "a", stopErr: first},
		&recordingComponent{name: "b", stopErr: second},
	)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	err := r.Stop(context.Background())
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected both stop errors, got %v", err)
	}
}
