// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

// Package tls issues and loads the certificates that secure the bus between
// SalamNest processes with mutual TLS.
//
// A certs directory holds root-ca.crt and root-ca.key plus one NAME.crt and
// NAME.key pair per process. Each leaf certificate is valid both as a server
// and as a client so the same pair serves and dials.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	cryptotls "crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
)

// Certificate lifetimes.
const (
	CAValidity   = 10 * 365 * 24 * time.Hour
	LeafValidity = 365 * 24 * time.Hour
)

const organization = "SalamNest"

// CA is a certificate authority.
type CA struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
}

// Cert is a leaf certificate for one process.
type Cert struct {
	Name        string
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
}

func newSerial() (*big.Int, error) {
	return rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
}

// GenerateCA creates a new self-signed root CA.
func GenerateCA() (*CA, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, oops.Code("TLS_KEY_FAILED").With("name", "root-ca").Wrap(err)
	}
	serial, err := newSerial()
	if err != nil {
		return nil, oops.Code("TLS_SERIAL_FAILED").Wrap(err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{organization},
			CommonName:   organization + " bus CA",
		},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(CAValidity),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, oops.Code("TLS_CERT_FAILED").With("name", "root-ca").Wrap(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, oops.Code("TLS_CERT_FAILED").With("name", "root-ca").Wrap(err)
	}
	return &CA{Certificate: cert, PrivateKey: key}, nil
}

// Issue signs a leaf certificate for the process called name. hosts are added
// as DNS or IP subject alternative names; localhost and 127.0.0.1 are always
// included.
func (ca *CA) Issue(name string, hosts ...string) (*Cert, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, oops.Code("TLS_KEY_FAILED").With("name", name).Wrap(err)
	}
	serial, err := newSerial()
	if err != nil {
		return nil, oops.Code("TLS_SERIAL_FAILED").Wrap(err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{organization},
			CommonName:   name,
		},
		NotBefore:   now.Add(-time.Minute),
		NotAfter:    now.Add(LeafValidity),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		DNSNames:    []string{"localhost", name},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1)},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else if h != "" {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, template, ca.Certificate, &key.PublicKey, ca.PrivateKey)
	if err != nil {
		return nil, oops.Code("TLS_CERT_FAILED").With("name", name).Wrap(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, oops.Code("TLS_CERT_FAILED").With("name", name).Wrap(err)
	}
	return &Cert{Name: name, Certificate: cert, PrivateKey: key}, nil
}

// Save writes the CA to dir as root-ca.crt and root-ca.key.
func (ca *CA) Save(dir string) error {
	return savePair(dir, "root-ca", ca.Certificate, ca.PrivateKey)
}

// Save writes the certificate to dir as NAME.crt and NAME.key.
func (c *Cert) Save(dir string) error {
	return savePair(dir, c.Name, c.Certificate, c.PrivateKey)
}

// LoadCA reads the CA saved in dir.
func LoadCA(dir string) (*CA, error) {
	pair, err := cryptotls.LoadX509KeyPair(filepath.Join(dir, "root-ca.crt"), filepath.Join(dir, "root-ca.key"))
	if err != nil {
		return nil, oops.Code("TLS_LOAD_FAILED").With("dir", dir).With("name", "root-ca").Wrap(err)
	}
	key, ok := pair.PrivateKey.(*ecdsa.PrivateKey)
	if !ok {
		return nil, oops.Code("TLS_LOAD_FAILED").With("dir", dir).Errorf("root CA key is not ECDSA")
	}
	cert := pair.Leaf
	if cert == nil {
		if cert, err = x509.ParseCertificate(pair.Certificate[0]); err != nil {
			return nil, oops.Code("TLS_LOAD_FAILED").With("dir", dir).Wrap(err)
		}
	}
	return &CA{Certificate: cert, PrivateKey: key}, nil
}

// ServerConfig loads NAME's pair from dir and returns a TLS config that
// requires clients to present a certificate signed by the same CA.
func ServerConfig(dir, name string) (*cryptotls.Config, error) {
	pair, pool, err := load(dir, name)
	if err != nil {
		return nil, err
	}
	return &cryptotls.Config{
		Certificates: []cryptotls.Certificate{pair},
		ClientCAs:    pool,
		ClientAuth:   cryptotls.RequireAndVerifyClientCert,
		MinVersion:   cryptotls.VersionTLS13,
	}, nil
}

// ClientConfig loads NAME's pair from dir and returns a TLS config that
// presents it and trusts only servers signed by the same CA. serverName is
// the name the server's certificate must carry.
func ClientConfig(dir, name, serverName string) (*cryptotls.Config, error) {
	pair, pool, err := load(dir, name)
	if err != nil {
		return nil, err
	}
	return &cryptotls.Config{
		Certificates: []cryptotls.Certificate{pair},
		RootCAs:      pool,
		ServerName:   serverName,
		MinVersion:   cryptotls.VersionTLS13,
	}, nil
}

func load(dir, name string) (cryptotls.Certificate, *x509.CertPool, error) {
	pair, err := cryptotls.LoadX509KeyPair(filepath.Join(dir, name+".crt"), filepath.Join(dir, name+".key"))
	if err != nil {
		return cryptotls.Certificate{}, nil, oops.Code("TLS_LOAD_FAILED").With("dir", dir).With("name", name).Wrap(err)
	}
	caPEM, err := os.ReadFile(filepath.Clean(filepath.Join(dir, "root-ca.crt")))
	if err != nil {
		return cryptotls.Certificate{}, nil, oops.Code("TLS_LOAD_FAILED").With("dir", dir).With("name", "root-ca").Wrap(err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return cryptotls.Certificate{}, nil, oops.Code("TLS_LOAD_FAILED").With("dir", dir).Errorf("root-ca.crt holds no certificate")
	}
	return pair, pool, nil
}

func savePair(dir, name string, cert *x509.Certificate, key *ecdsa.PrivateKey) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return oops.Code("TLS_SAVE_FAILED").With("dir", dir).Wrap(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return oops.Code("TLS_SAVE_FAILED").With("name", name).Wrap(err)
	}
	if err := writePEM(filepath.Join(dir, name+".crt"), "CERTIFICATE", cert.Raw); err != nil {
		return err
	}
	return writePEM(filepath.Join(dir, name+".key"), "EC PRIVATE KEY", keyDER)
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return oops.Code("TLS_SAVE_FAILED").With("path", path).Wrap(err)
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		_ = f.Close()
		return oops.Code("TLS_SAVE_FAILED").With("path", path).Wrap(err)
	}
	if err := f.Close(); err != nil {
		return oops.Code("TLS_SAVE_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
