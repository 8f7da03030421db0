package workflow

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestPortOf(t *testing.T) {
	tests := []struct {
		address string
		want    int
		wantErr bool
	}{
		{address: "0.0.0.0:8080", want: 8080},
		{address: ":9090", want: 9090},
		{address: "localhost", wantErr: true},
		{address: "localhost:http", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			got, err := portOf(tt.address)
			if (err != nil) != tt.wantErr {
				t.Fatalf("portOf(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("portOf(%q) = %d, want %d", tt.address, got, tt.want)
			}
		})
	}
}

func TestRunServeWorkflow_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- RunServeWorkflow(ctx, ServeOptions{
			Address:       "127.0.0.1:0",
			Database:      filepath.Join(t.TempDir(), "wanderly.db"),
			Seed:          true,
			ProbeInterval: time.Second,
		})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunServeWorkflow() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("RunServeWorkflow() did not return after cancellation")
	}
}
