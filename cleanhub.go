// Package cleanhub is the Go client for the cleanhub marketplace API.
// It wires the request gateway, the auth session, and one store per
// entity family into a single constructed client. Stores are plain
// instances with no process-wide state; tests and embedders build as
// many independent clients as they need.
package cleanhub

import (
	"errors"
	"strings"

	"github.com/cleanhub/cleanhub-go/auth"
	"github.com/cleanhub/cleanhub-go/config"
	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/internal/pkg/logger"
	"github.com/cleanhub/cleanhub-go/realtime"
	"github.com/cleanhub/cleanhub-go/store/blogs"
	"github.com/cleanhub/cleanhub-go/store/bookings"
	"github.com/cleanhub/cleanhub-go/store/catalog"
	"github.com/cleanhub/cleanhub-go/store/company"
	"github.com/cleanhub/cleanhub-go/store/notifications"
	"github.com/cleanhub/cleanhub-go/store/payments"
	"github.com/cleanhub/cleanhub-go/store/services"
	"github.com/cleanhub/cleanhub-go/store/staffing"
	"github.com/cleanhub/cleanhub-go/store/users"
)

// Client bundles the gateway, the session, and every domain store.
type Client struct {
	Gateway *gateway.Gateway
	Session *auth.Session

	Users         *users.Store
	Services      *services.Store
	Bookings      *bookings.Store
	Payments      *payments.Store
	Catalog       *catalog.Store
	Blogs         *blogs.Store
	Staffing      *staffing.Store
	Notifications *notifications.Store
	Company       *company.Store

	// Realtime is nil unless the config enables the channel. Events
	// are fed into the Notifications store automatically.
	Realtime *realtime.Client
}

// New builds a client from configuration.
func New(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		cfg = config.Load()
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("cleanhub: base URL is required")
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		return nil, err
	}

	session := auth.NewSession(auth.NewTokenCache(cfg.TokenCachePath))
	gw := gateway.New(cfg.BaseURL, session, cfg.HTTPTimeout, cfg.UserAgent)
	session.Bind(gw)

	c := &Client{
		Gateway: gw,
		Session: session,

		Users:         users.NewStore(gw),
		Services:      services.NewStore(gw),
		Bookings:      bookings.NewStore(gw),
		Payments:      payments.NewStore(gw),
		Catalog:       catalog.NewStore(gw),
		Blogs:         blogs.NewStore(gw),
		Staffing:      staffing.NewStore(gw),
		Notifications: notifications.NewStore(gw),
		Company:       company.NewStore(gw),
	}

	if cfg.RealtimeEnabled && cfg.RealtimeURL != "" {
		c.Realtime = realtime.New(cfg.RealtimeURL, session, func(ev realtime.Event) {
			if ev.Type == realtime.EventNotificationNew && ev.Notification != nil {
				c.Notifications.Apply(*ev.Notification)
			}
		})
	}

	return c, nil
}
