package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/httputil"
	"golang.org/x/time/rate"
)

// ScoreLimiter throttles score entry per user.
type ScoreLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewScoreLimiter(perSecond float64, burst int) *ScoreLimiter {
	return &ScoreLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *ScoreLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Handler keys by the authenticated user, falling back to the remote address.
func (l *ScoreLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if actor, ok := ActorFromContext(r.Context()); ok {
			key = actor.UserID.String()
		}

		res := l.limiter(key).Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			seconds := int(math.Ceil(delay.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many score updates, slow down"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Prune drops limiters that have refilled completely.
func (l *ScoreLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, lim := range l.limiters {
		if lim.TokensAt(now) >= float64(l.burst) {
			delete(l.limiters, key)
		}
	}
}
