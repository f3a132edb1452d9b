package session

import (
	"sync"
	"time"
)

const (
	// RateLimitMessage is shown when the search API answers HTTP 429.
	RateLimitMessage = "Google says: Too many requests (error 429). Please check your API billing or try again later."
	// BannerTTL is how long a banner stays visible after Show.
	BannerTTL = 6 * time.Second
)

// Banner is a warning that hides itself BannerTTL after it was last shown.
type Banner struct {
	mu      sync.Mutex
	message string
	until   time.Time
	shown   int
}

// Show displays msg until now+BannerTTL. Showing again extends the deadline.
func (b *Banner) Show(msg string, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.message = msg
	b.until = now.Add(BannerTTL)
	b.shown++
}

// Active returns the message if the banner is still visible at now.
func (b *Banner) Active(now time.Time) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.message == "" || !now.Before(b.until) {
		return "", false
	}
	return b.message, true
}

// Shown counts Show calls since the banner was created.
func (b *Banner) Shown() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shown
}
