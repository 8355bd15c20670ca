package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// URLSigner produces and checks the expiring signatures attached to report
// download URLs, so the download endpoint can stay outside the realtime
// session without becoming a public file server.
type URLSigner struct {
	key []byte
}

// NewURLSigner derives the MAC key from the master secret.
func NewURLSigner(masterSecret []byte) (*URLSigner, error) {
	key, err := DeriveKey(masterSecret, UsageDownloadMAC, sha256.Size)
	if err != nil {
		return nil, err
	}
	return &URLSigner{key: key}, nil
}

// Sign returns the hex signature for a file name valid until exp.
func (s *URLSigner) Sign(name string, exp time.Time) string {
	return s.mac(name, exp.Unix())
}

// Verify checks a signature produced by Sign. It fails on expiry as well as
// on mismatch, and compares in constant time.
func (s *URLSigner) Verify(name, expStr, sig string) error {
	expUnix, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed expiry: %w", err)
	}
	if time.Now().Unix() > expUnix {
		return fmt.Errorf("link expired")
	}
	want := s.mac(name, expUnix)
	if !hmac.Equal([]byte(want), []byte(sig)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

func (s *URLSigner) mac(name string, expUnix int64) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(expUnix, 10)))
	return hex.EncodeToString(h.Sum(nil))
}
