package azureblobkeepfx

import (
	"errors"
	"testing"

	"github.com/discochess/blobkeep/internal/stats"
	"github.com/discochess/blobkeep/objectstore"
	"github.com/discochess/blobkeep/objectstore/cachedstore"
	"github.com/discochess/blobkeep/objectstore/codecstore"
	"github.com/discochess/blobkeep/objectstore/memstore"
)

func TestWrap(t *testing.T) {
	base := memstore.New("test")

	tests := []struct {
		name      string
		cfg       Config
		wantCache bool
		wantCodec bool
		wantErr   bool
	}{
		{name: "bare", cfg: Config{}},
		{name: "codec", cfg: Config{Codec: "zstd"}, wantCodec: true},
		{name: "cache", cfg: Config{CacheSize: 10}, wantCache: true},
		{name: "both", cfg: Config{Codec: "gzip", CacheSize: 10}, wantCache: true, wantCodec: true},
		{name: "unknown codec", cfg: Config{Codec: "lz4"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := wrap(base, tt.cfg, stats.NewNoop())
			if tt.wantErr {
				if !errors.Is(err, objectstore.ErrInvalidConfig) {
					t.Errorf("wrap() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("wrap() error = %v", err)
			}

			if c, ok := st.(*cachedstore.Store); ok != tt.wantCache {
				t.Errorf("cached = %v, want %v", ok, tt.wantCache)
			} else if ok {
				st = c.Store
			}
			if _, ok := st.(*codecstore.Store); ok != tt.wantCodec {
				t.Errorf("codec = %v, want %v", ok, tt.wantCodec)
			}
		})
	}
}

func TestNewBlockstore_InvalidConnectionString(t *testing.T) {
	_, err := newBlockstore(Params{Config: Config{Container: "blocks"}})
	if !errors.Is(err, objectstore.ErrInvalidConfig) {
		t.Errorf("newBlockstore() error = %v, want ErrInvalidConfig", err)
	}
}
