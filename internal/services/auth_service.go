package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ceconelo/financaia/internal/core"
	"github.com/ceconelo/financaia/internal/storage"
)

const keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// AuthService guards the invite-only access model: single-use access
// keys activate a user, everyone else lands on an email waitlist.
type AuthService struct {
	store storage.TxStore
}

func NewAuthService(store storage.TxStore) *AuthService {
	return &AuthService{store: store}
}

// CheckAccess reports whether the user is authorized. Unknown users
// are simply not authorized.
func (s *AuthService) CheckAccess(ctx context.Context, userID string) bool {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return false
	}
	return user.IsAuthorized
}

// RedeemKey marks an access key as used and authorizes the user, both
// inside one transaction so the same key can never activate two users.
func (s *AuthService) RedeemKey(ctx context.Context, userID, key string) error {
	key = strings.ToUpper(strings.TrimSpace(key))

	return s.store.WithTx(ctx, func(tx storage.Store) error {
		accessKey, err := tx.GetAccessKey(ctx, key)
		if err != nil {
			return err
		}
		if accessKey.IsUsed {
			return core.ErrKeyUsed
		}

		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		accessKey.IsUsed = true
		accessKey.UsedByUserID = userID
		accessKey.UsedAt = time.Now().UTC()
		if err := tx.UpdateAccessKey(ctx, accessKey); err != nil {
			return fmt.Errorf("mark key used: %w", err)
		}

		user.IsAuthorized = true
		if err := tx.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("authorize user: %w", err)
		}
		return nil
	})
}

// JoinWaitlist stores the user's email so access can be granted later.
func (s *AuthService) JoinWaitlist(ctx context.Context, userID, email string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	user.Email = strings.ToLower(strings.TrimSpace(email))
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("save waitlist email: %w", err)
	}
	return nil
}

// GenerateKey mints a fresh unused access key (8 chars, ambiguity-free
// uppercase alphabet). Retries on the unlikely unique-constraint clash.
func (s *AuthService) GenerateKey(ctx context.Context) (*core.AccessKey, error) {
	for attempt := 0; attempt < 5; attempt++ {
		key, err := randomKey(8)
		if err != nil {
			return nil, err
		}
		accessKey := &core.AccessKey{Key: key}
		if err := s.store.CreateAccessKey(ctx, accessKey); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, fmt.Errorf("create access key: %w", err)
		}
		return accessKey, nil
	}
	return nil, errors.New("could not generate a unique access key")
}

func randomKey(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(keyAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate key: %w", err)
		}
		b[i] = keyAlphabet[n.Int64()]
	}
	return string(b), nil
}

// randomInviteCode returns a 6-char uppercase hex code for family
// invites.
func randomInviteCode() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
