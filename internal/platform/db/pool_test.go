package db

import "testing"

func TestPoolConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      PoolConfig
		max, min int32
		wantErr  bool
	}{
		{"limits", PoolConfig{URL: "postgres://u:p@localhost:5432/caretrack", MaxConns: 8, MinConns: 2}, 8, 2, false},
		{"min above max ignored", PoolConfig{URL: "postgres://localhost/caretrack?pool_max_conns=4", MinConns: 9}, 4, 0, false},
		{"bad url", PoolConfig{URL: "://nope"}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.parse()
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.MaxConns != tt.max || got.MinConns != tt.min {
				t.Errorf("expected %d/%d conns, got %d/%d", tt.max, tt.min, got.MaxConns, got.MinConns)
			}
		})
	}
}
