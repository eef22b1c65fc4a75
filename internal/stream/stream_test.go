package stream

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func produce(tokens []string, err error) (<-chan string, <-chan error) {
	tokenChan := make(chan string, len(tokens))
	errChan := make(chan error, 1)
	go func() {
		defer close(tokenChan)
		defer close(errChan)
		for _, t := range tokens {
			tokenChan <- t
		}
		if err != nil {
			errChan <- err
		}
	}()
	return tokenChan, errChan
}

func TestBridgeAccumulationMatchesCallback(t *testing.T) {
	tokens := []string{"The ", "video ", "shows ", "a ", "tutorial."}
	tokenChan, errChan := produce(tokens, nil)

	var seen []string
	got, err := Bridge(context.Background(), tokenChan, errChan, func(tok string) {
		seen = append(seen, tok)
	})
	if err != nil {
		t.Fatal(err)
	}

	want := strings.Join(tokens, "")
	if got != want {
		t.Errorf("accumulated %q, want %q", got, want)
	}
	if strings.Join(seen, "") != got {
		t.Error("callback concatenation diverged from accumulated text")
	}
}

func TestBridgeNilCallback(t *testing.T) {
	tokenChan, errChan := produce([]string{"a", "b"}, nil)
	got, err := Bridge(context.Background(), tokenChan, errChan, nil)
	if err != nil || got != "ab" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestBridgeStreamError(t *testing.T) {
	boom := errors.New("backend fell over")
	tokenChan, errChan := produce([]string{"partial "}, boom)

	got, err := Bridge(context.Background(), tokenChan, errChan, nil)
	if !errors.Is(err, boom) {
		t.Errorf("expected stream error, got %v", err)
	}
	if got != "partial " {
		t.Errorf("partial text should survive the error, got %q", got)
	}
}

func TestBridgeCancellation(t *testing.T) {
	tokenChan := make(chan string)
	errChan := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())

	// The producer never closes its channels, so Bridge can only return
	// through cancellation.
	done := make(chan struct{})
	go func() {
		defer close(done)
		tokenChan <- "first "
		select {
		case tokenChan <- "second ":
		case <-ctx.Done():
		}
	}()

	var count int
	got, err := Bridge(ctx, tokenChan, errChan, func(string) {
		count++
		if count == 1 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if !strings.HasPrefix(got, "first ") {
		t.Errorf("expected partial accumulation, got %q", got)
	}
	<-done
	cancel()
}
