package cache

import (
	"strings"
	"testing"
)

func TestFeedKey(t *testing.T) {
	key1a := FeedKey("https://feeds.example.com/feed.xml")
	key1b := FeedKey("https://feeds.example.com/feed.xml")
	key2 := FeedKey("http://localhost:8080/feed.xml")

	if key1a != key1b {
		t.Errorf("Expected same key for same URL, got %s != %s", key1a, key1b)
	}
	if key1a == key2 {
		t.Errorf("Expected different keys for different URLs, but got same: %s", key1a)
	}
	if !strings.HasPrefix(key1a, "homefeed:feed:") {
		t.Errorf("Expected key to start with 'homefeed:feed:', got %s", key1a)
	}
	if len(key1a) != len("homefeed:feed:")+16 {
		t.Errorf("Expected 16 hex characters after the prefix, got %s", key1a)
	}
}

func TestNewCache_Unreachable(t *testing.T) {
	cache, err := NewCache("127.0.0.1:1", "https://feeds.example.com/feed.xml", 0)
	if err == nil {
		cache.Close()
		t.Fatal("Expected error for unreachable Redis")
	}
	if cache != nil {
		t.Errorf("Expected nil cache on error")
	}
}
