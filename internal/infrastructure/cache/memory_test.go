package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
)

func page(url string, status int) *domain.Page {
	return &domain.Page{URL: url, StatusCode: status, Body: []byte("<html></html>")}
}

func TestPageCache_SetAndGet(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		url     string
		page    *domain.Page
		wantHit bool
	}{
		{
			name:    "stores ok page",
			url:     "https://shop.test/products/jacket",
			page:    page("https://shop.test/products/jacket", 200),
			wantHit: true,
		},
		{
			name:    "skips not found page",
			url:     "https://shop.test/products/missing",
			page:    page("https://shop.test/products/missing", 404),
			wantHit: false,
		},
		{
			name:    "skips nil page",
			url:     "https://shop.test/products/nil",
			page:    nil,
			wantHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewPageCache(10, time.Minute)

			if err := cache.Set(ctx, tt.url, tt.page); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, err := cache.Get(ctx, tt.url)
			if tt.wantHit {
				if err != nil {
					t.Fatalf("Get() error = %v", err)
				}
				if got != tt.page {
					t.Errorf("Get() = %v, want %v", got, tt.page)
				}
				return
			}
			if err != domain.ErrCacheMiss {
				t.Errorf("Get() error = %v, want ErrCacheMiss", err)
			}
		})
	}
}

func TestPageCache_Expiration(t *testing.T) {
	cache := NewPageCache(10, 5*time.Millisecond)
	ctx := context.Background()
	url := "https://shop.test/products/short-lived"

	_ = cache.Set(ctx, url, page(url, 200))
	time.Sleep(20 * time.Millisecond)

	if _, err := cache.Get(ctx, url); err != domain.ErrCacheMiss {
		t.Errorf("Expected cache miss after expiration, got error = %v", err)
	}
}

func TestPageCache_EvictsOldest(t *testing.T) {
	cache := NewPageCache(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		url := fmt.Sprintf("https://shop.test/products/%d", i)
		_ = cache.Set(ctx, url, page(url, 200))
	}

	if cache.lru.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.lru.Len())
	}
	if _, err := cache.Get(ctx, "https://shop.test/products/0"); err != domain.ErrCacheMiss {
		t.Errorf("oldest page should be evicted, got error = %v", err)
	}
	if _, err := cache.Get(ctx, "https://shop.test/products/2"); err != nil {
		t.Errorf("newest page should be present, got error = %v", err)
	}
}

func TestPageCache_Clear(t *testing.T) {
	cache := NewPageCache(0, 0)
	ctx := context.Background()

	_ = cache.Set(ctx, "a", page("a", 200))
	_ = cache.Set(ctx, "b", page("b", 200))

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if cache.lru.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", cache.lru.Len())
	}
	if _, err := cache.Get(ctx, "a"); err != domain.ErrCacheMiss {
		t.Errorf("Get() after Clear error = %v, want ErrCacheMiss", err)
	}
}

func TestPageCache_ConcurrentAccess(t *testing.T) {
	cache := NewPageCache(50, time.Minute)
	ctx := context.Background()
	done := make(chan bool)

	for i := 0; i < 10; i++ {
		go func(id int) {
			for j := 0; j < 100; j++ {
				url := fmt.Sprintf("https://shop.test/%d/%d", id, j%5)
				_ = cache.Set(ctx, url, page(url, 200))
				_, _ = cache.Get(ctx, url)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
