package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jswenson/ritual/internal/model"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrExpired is returned when the push service reports a subscription's
// endpoint as permanently gone (404 or 410).
var ErrExpired = errors.New("push subscription expired")

// Payload is the JSON sent to the push service and rendered by the service
// worker.
type Payload struct {
	Title              string         `json:"title"`
	Body               string         `json:"body"`
	Data               map[string]any `json:"data,omitempty"`
	Tag                string         `json:"tag,omitempty"`
	Renotify           bool           `json:"renotify"`
	RequireInteraction bool           `json:"requireInteraction"`
}

// Config holds the process-wide VAPID signing configuration. It is
// constructed once at startup and passed by reference; nothing reads it from
// ambient state.
type Config struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

// Validate checks the startup precondition: both keys must be present.
func (c Config) Validate() error {
	if c.PublicKey == "" || c.PrivateKey == "" {
		return errors.New("VAPID public and private keys are required")
	}
	return nil
}

// Service signs and transmits web push messages. The VAPID JWT signing and
// payload encryption are delegated to the webpush library.
type Service struct {
	cfg Config
}

// NewService creates a push service from VAPID configuration.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// VAPIDPublicKey returns the VAPID public key for client-side subscription.
func (s *Service) VAPIDPublicKey() string {
	return s.cfg.PublicKey
}

// Send delivers one push message to a subscription. It returns the push
// service's status code alongside any error: ErrExpired for 404/410, a
// generic error for other failure statuses or transport errors.
func (s *Service) Send(sub *model.PushSubscription, payload Payload) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotification(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
		Subscriber:      s.cfg.Subject,
		TTL:             86400,
	})
	if err != nil {
		return 0, fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return resp.StatusCode, ErrExpired
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return resp.StatusCode, nil
}

// GenerateVAPIDKeys generates a new ECDSA P-256 key pair for VAPID.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.Bytes())

	return publicKey, privateKey, nil
}
