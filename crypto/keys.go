package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// KeySource identifies where the active key pair came from.
type KeySource int

const (
	// SourceSupplied means PEM material was provided through configuration
	// (typically environment variables on serverless deployments).
	SourceSupplied KeySource = iota
	// SourceFile means the pair was loaded from, or generated and persisted
	// to, the keys directory.
	SourceFile
	// SourceVolatile means the pair was generated but could not be
	// persisted; it lives only in process memory.
	SourceVolatile
)

func (s KeySource) String() string {
	switch s {
	case SourceSupplied:
		return "supplied"
	case SourceFile:
		return "file"
	case SourceVolatile:
		return "volatile"
	default:
		return "unknown"
	}
}

const (
	privateKeyFile = "private_key.pem"
	publicKeyFile  = "public_key.pem"

	// DefaultKeySize is used when no size is configured. 4096 is also
	// supported but noticeably slower to generate and decrypt.
	DefaultKeySize = 2048
)

// ErrKeyResolution wraps failures that make authentication impossible.
// It is fatal at startup: without a key pair no login can be verified.
var ErrKeyResolution = errors.New("rsa key resolution failed")

// KeyPair is the process-wide RSA pair used for password transport.
// It is resolved once at startup and never mutated or rotated; the
// private half never leaves the process.
type KeyPair struct {
	Private   *rsa.PrivateKey
	PublicPEM string
	BitSize   int
	Source    KeySource
}

// Manager resolves the key pair following a fixed precedence:
// supplied PEM material, then key files on disk, then fresh generation.
// Generated keys are persisted best-effort; a read-only filesystem
// downgrades the source to volatile instead of failing startup.
type Manager struct {
	dir         string
	suppliedPub string
	suppliedPrv string
	bitSize     int
	logger      *slog.Logger

	mu   sync.Mutex
	pair *KeyPair
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSuppliedPEM provides pre-provisioned key material. Both halves must
// be set for the supplied source to be used.
func WithSuppliedPEM(publicPEM, privatePEM string) ManagerOption {
	return func(m *Manager) {
		m.suppliedPub = publicPEM
		m.suppliedPrv = privatePEM
	}
}

// WithKeySize sets the bit size for generated keys.
func WithKeySize(bits int) ManagerOption {
	return func(m *Manager) {
		m.bitSize = bits
	}
}

// WithManagerLogger sets the logger used for key lifecycle events.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a key manager that persists generated keys under dir.
func NewManager(dir string, opts ...ManagerOption) *Manager {
	m := &Manager{
		dir:     dir,
		bitSize: DefaultKeySize,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureKeyPair resolves the active key pair. It is idempotent: the first
// call resolves and caches the pair, later calls return the same pair.
func (m *Manager) EnsureKeyPair() (*KeyPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pair != nil {
		return m.pair, nil
	}

	if m.suppliedPub != "" && m.suppliedPrv != "" {
		pair, err := m.loadSupplied()
		if err != nil {
			return nil, err
		}
		m.pair = pair
		m.logger.Info("rsa key pair loaded", "source", pair.Source.String(), "bits", pair.BitSize)
		return pair, nil
	}

	if pair, err := m.loadFromFiles(); err == nil {
		m.pair = pair
		m.logger.Info("rsa key pair loaded", "source", pair.Source.String(), "bits", pair.BitSize)
		return pair, nil
	}

	pair, err := m.generate()
	if err != nil {
		return nil, err
	}
	m.pair = pair
	m.logger.Info("rsa key pair generated", "source", pair.Source.String(), "bits", pair.BitSize)
	return pair, nil
}

func (m *Manager) loadSupplied() (*KeyPair, error) {
	priv, err := parsePrivateKeyPEM([]byte(m.suppliedPrv))
	if err != nil {
		return nil, fmt.Errorf("%w: supplied private key: %v", ErrKeyResolution, err)
	}
	return &KeyPair{
		Private:   priv,
		PublicPEM: m.suppliedPub,
		BitSize:   priv.N.BitLen(),
		Source:    SourceSupplied,
	}, nil
}

func (m *Manager) loadFromFiles() (*KeyPair, error) {
	privPEM, err := os.ReadFile(filepath.Join(m.dir, privateKeyFile))
	if err != nil {
		return nil, err
	}
	pubPEM, err := os.ReadFile(filepath.Join(m.dir, publicKeyFile))
	if err != nil {
		return nil, err
	}
	priv, err := parsePrivateKeyPEM(privPEM)
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		Private:   priv,
		PublicPEM: string(pubPEM),
		BitSize:   priv.N.BitLen(),
		Source:    SourceFile,
	}, nil
}

func (m *Manager) generate() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, m.bitSize)
	if err != nil {
		return nil, fmt.Errorf("%w: generating %d-bit key: %v", ErrKeyResolution, m.bitSize, err)
	}

	pubPEM, err := MarshalPublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyResolution, err)
	}

	pair := &KeyPair{
		Private:   priv,
		PublicPEM: pubPEM,
		BitSize:   m.bitSize,
		Source:    SourceFile,
	}

	if err := m.persist(priv, pubPEM); err != nil {
		// Read-only filesystems are expected on some deployments; keep the
		// pair in memory and continue.
		m.logger.Warn("could not persist rsa keys, keeping in memory", "error", err)
		pair.Source = SourceVolatile
	}
	return pair, nil
}

// persist writes both PEM files: the private half owner-only, the public
// half world-readable.
func (m *Manager) persist(priv *rsa.PrivateKey, pubPEM string) error {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("creating keys directory: %w", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return fmt.Errorf("marshaling private key: %w", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	if err := os.WriteFile(filepath.Join(m.dir, privateKeyFile), privPEM, 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, publicKeyFile), []byte(pubPEM), 0o644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}

// MarshalPublicKeyPEM encodes a public key as a SubjectPublicKeyInfo PEM
// block, the format browsers expect for Web Crypto import.
func MarshalPublicKeyPEM(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshaling public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// ParsePublicKeyPEM decodes a SubjectPublicKeyInfo PEM block into an RSA
// public key.
func ParsePublicKeyPEM(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key: %T", key)
	}
	return pub, nil
}

// parsePrivateKeyPEM accepts PKCS#8 and PKCS#1 encodings.
func parsePrivateKeyPEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		priv, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("not an RSA private key: %T", key)
		}
		return priv, nil
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return priv, nil
}
