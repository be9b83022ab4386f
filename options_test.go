package blobkeep

import (
	"errors"
	"testing"
)

func TestShardStrategyByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "next-to-last", false},
		{"next-to-last", "next-to-last", false},
		{"flat", "flat", false},
		{"fnv32", "fnv32", false},
		{"material", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ShardStrategyByName(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("ShardStrategyByName() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ShardStrategyByName() error = %v", err)
			}
			if s.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.want)
			}
		})
	}
}

func TestDecodePolicy_String(t *testing.T) {
	if got := SkipMalformed.String(); got != "skip" {
		t.Errorf("SkipMalformed.String() = %q", got)
	}
	if got := AbortOnMalformed.String(); got != "abort" {
		t.Errorf("AbortOnMalformed.String() = %q", got)
	}
}
