package opdk_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/biocache/opdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeKeypair writes a self-signed certificate and its key and returns
// their paths.
func writeKeypair(t *testing.T) (string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDer, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath, keyPath := filepath.Join(dir, "tls.crt"), filepath.Join(dir, "tls.key")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0600))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDer}), 0600))
	return certPath, keyPath
}

func TestGetTLSConfig(t *testing.T) {
	conf, err := opdk.GetTLSConfig(&opdk.TLSConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, conf)

	certPath, keyPath := writeKeypair(t)
	conf, err = opdk.GetTLSConfig(&opdk.TLSConfig{
		CertificatePath:          certPath,
		CertificateKeyPath:       keyPath,
		CACertPath:               certPath,
		EnableClientVerification: true,
	}, opdk.NopLogger{})
	require.NoError(t, err)
	require.NotNil(t, conf)
	cert, err := conf.GetCertificate(&tls.ClientHelloInfo{})
	require.NoError(t, err)
	assert.NotEmpty(t, cert.Certificate)
	assert.NotNil(t, conf.RootCAs)
	assert.Equal(t, tls.RequireAndVerifyClientCert, conf.ClientAuth)

	conf, err = opdk.GetTLSConfig(&opdk.TLSConfig{SkipVerify: true}, nil)
	require.NoError(t, err)
	assert.True(t, conf.InsecureSkipVerify)
}

func TestGetTLSConfigErrors(t *testing.T) {
	_, err := opdk.GetTLSConfig(&opdk.TLSConfig{CertificatePath: "/no/such.crt", CertificateKeyPath: "/no/such.key"}, nil)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "ca.crt")
	require.NoError(t, os.WriteFile(bad, []byte("not pem"), 0600))
	_, err = opdk.GetTLSConfig(&opdk.TLSConfig{CACertPath: bad}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CA certificate")
}
