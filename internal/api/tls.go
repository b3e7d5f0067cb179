package api

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// TLSConfig holds the certificate and key paths from BREWSIM_TLS_CERT and
// BREWSIM_TLS_KEY.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

var tlsConfig *TLSConfig

// InitTLS reads the TLS paths from the environment. Neither set disables
// TLS; only one set is an error.
func InitTLS() error {
	certFile := os.Getenv("BREWSIM_TLS_CERT")
	keyFile := os.Getenv("BREWSIM_TLS_KEY")

	tlsConfig = nil
	switch {
	case certFile == "" && keyFile == "":
		return nil
	case certFile == "" || keyFile == "":
		return errors.New("BREWSIM_TLS_CERT and BREWSIM_TLS_KEY must be set together")
	}
	tlsConfig = &TLSConfig{CertFile: certFile, KeyFile: keyFile}
	return nil
}

func IsTLSEnabled() bool {
	return tlsConfig != nil
}

// SetTLSConfigForTest allows tests to set TLS config directly.
func SetTLSConfigForTest(cfg *TLSConfig) {
	tlsConfig = cfg
}

// certReloader serves the key pair from disk and reloads it whenever the
// certificate file's modification time moves forward.
type certReloader struct {
	certFile string
	keyFile  string

	mu      sync.Mutex
	cert    *tls.Certificate
	modTime time.Time
}

func (r *certReloader) load() error {
	st, err := os.Stat(r.certFile)
	if err != nil {
		return err
	}
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return err
	}
	r.cert, r.modTime = &cert, st.ModTime()
	return nil
}

func (r *certReloader) getCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, err := os.Stat(r.certFile); err == nil && st.ModTime().After(r.modTime) {
		// keep serving the previous pair if the new one is half written
		if err := r.load(); err != nil {
			log.Printf("tls: reload %s failed: %v", r.certFile, err)
		} else {
			log.Printf("tls: reloaded %s", r.certFile)
		}
	}
	return r.cert, nil
}

// ServerTLSConfig returns the API's tls.Config, or nil when TLS is disabled.
func ServerTLSConfig() (*tls.Config, error) {
	if !IsTLSEnabled() {
		return nil, nil
	}
	r := &certReloader{certFile: tlsConfig.CertFile, keyFile: tlsConfig.KeyFile}
	if err := r.load(); err != nil {
		return nil, fmt.Errorf("load TLS certificate: %w", err)
	}
	return &tls.Config{
		GetCertificate: r.getCertificate,
		MinVersion:     tls.VersionTLS12,
	}, nil
}
