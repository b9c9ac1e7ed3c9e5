// Package secure keeps credentials encrypted at rest in a prefs.Store.
package secure

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/litescript/alkaid/internal/logging"
	"github.com/litescript/alkaid/internal/prefs"
)

const (
	// Namespace holds encrypted values.
	Namespace = "alkaid_secure_prefs"
	// FallbackNamespace holds plaintext values when no key could be set up.
	FallbackNamespace = "alkaid_prefs_fallback"

	keyWeatherAPIKey = "weather_api_key"

	// MasterKeyFile is created inside the data directory.
	MasterKeyFile = "master.key"
	masterKeySize = 32
	hkdfInfo      = "alkaid secure prefs v1"
)

// ErrNoKey is returned when no weather API key is stored.
var ErrNoKey = errors.New("secure: no API key stored")

// Storage stores credentials, encrypted with XChaCha20-Poly1305 when a master
// key is available.
type Storage struct {
	store    prefs.Store
	aead     cipher.AEAD // nil in plaintext fallback
	log      *logging.Logger
	override string
}

// Option configures a Storage.
type Option func(*Storage)

// WithOverride makes key take precedence over the stored weather API key,
// typically from the ALKAID_WEATHER_API_KEY environment variable. Blank
// values are ignored.
func WithOverride(key string) Option {
	return func(s *Storage) {
		s.override = strings.TrimSpace(key)
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(s *Storage) {
		s.log = log
	}
}

// New opens credential storage over store, loading or creating the master key
// in dataDir. If the key cannot be provisioned, values are kept in plaintext
// under FallbackNamespace and a warning is logged.
func New(store prefs.Store, dataDir string, opts ...Option) *Storage {
	s := &Storage{store: store, log: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "secure")

	aead, err := provision(dataDir)
	if err != nil {
		s.log.Warn("encrypted storage unavailable, falling back to plaintext: %v", err)
		return s
	}
	s.aead = aead
	return s
}

// Encrypted reports whether values are encrypted at rest.
func (s *Storage) Encrypted() bool {
	return s.aead != nil
}

func (s *Storage) namespace() string {
	if s.aead != nil {
		return Namespace
	}
	return FallbackNamespace
}

// SaveWeatherAPIKey stores key.
func (s *Storage) SaveWeatherAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("secure: empty API key")
	}
	val, err := s.seal(keyWeatherAPIKey, key)
	if err != nil {
		return err
	}
	if err := s.store.Put(s.namespace(), keyWeatherAPIKey, val); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	return nil
}

// WeatherAPIKey returns the override if set, else the stored key, else
// ErrNoKey.
func (s *Storage) WeatherAPIKey() (string, error) {
	if s.override != "" {
		return s.override, nil
	}
	raw, ok, err := s.store.Get(s.namespace(), keyWeatherAPIKey)
	if err != nil {
		return "", fmt.Errorf("load api key: %w", err)
	}
	if !ok || raw == "" {
		return "", ErrNoKey
	}
	return s.open(keyWeatherAPIKey, raw)
}

// HasWeatherAPIKey reports whether a usable key exists.
func (s *Storage) HasWeatherAPIKey() bool {
	key, err := s.WeatherAPIKey()
	return err == nil && key != ""
}

// RemoveWeatherAPIKey deletes the stored key. An override stays in effect.
func (s *Storage) RemoveWeatherAPIKey() error {
	if err := s.store.Delete(s.namespace(), keyWeatherAPIKey); err != nil {
		return fmt.Errorf("remove api key: %w", err)
	}
	return nil
}

// Clear removes every stored credential.
func (s *Storage) Clear() error {
	if err := s.store.Clear(s.namespace()); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (s *Storage) seal(name, plaintext string) (string, error) {
	if s.aead == nil {
		return plaintext, nil
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(name))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Storage) open(name, stored string) (string, error) {
	if s.aead == nil {
		return stored, nil
	}
	sealed, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	ns := s.aead.NonceSize()
	if len(sealed) < ns+s.aead.Overhead() {
		return "", fmt.Errorf("decrypt %s: ciphertext too short", name)
	}
	plain, err := s.aead.Open(nil, sealed[:ns], sealed[ns:], []byte(name))
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", name, err)
	}
	return string(plain), nil
}

// provision loads or creates the master key and derives the AEAD from it.
func provision(dataDir string) (cipher.AEAD, error) {
	if dataDir == "" {
		return nil, errors.New("no data directory")
	}
	master, err := loadOrCreateMaster(filepath.Join(dataDir, MasterKeyFile))
	if err != nil {
		return nil, err
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return aead, nil
}

func loadOrCreateMaster(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != masterKeySize {
			return nil, fmt.Errorf("master key %s has %d bytes, want %d", path, len(data), masterKeySize)
		}
		return data, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read master key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	master := make([]byte, masterKeySize)
	if _, err := rand.Read(master); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	if err := writeMasterKey(f, master); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write master key: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write master key: %w", err)
	}
	return master, nil
}

// writeMasterKey is replaced in tests to simulate a failed write.
var writeMasterKey = func(f *os.File, master []byte) error {
	_, err := f.Write(master)
	return err
}
