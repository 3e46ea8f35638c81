package redisx

import "time"

const (
	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Seller dashboard snapshot: seller_stats:{restaurant_id}
	KeySellerStats = "seller_stats:%d"

	// User preference categories fetched from user-service: user_prefs:{user_id}
	KeyUserPrefs = "user_prefs:%d"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLStatsCache  = 30 * time.Second
	TTLPrefsCache  = 10 * time.Minute
)
