// credstore.go implements the pluggable credential store behind authn,
// backed by an embedded indexed KV store rather than a full RDBMS -
// mirroring a common pattern of swappable, embeddable backing stores for
// small control-plane state.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package authn

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/buntdb"
)

// Credential is one S3/Swift account's auth material.
type Credential struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SwiftUser       string `json:"swift_user"`
	SwiftPassHash   string `json:"swift_pass_hash"` // pbkdf2, see password.go
	SwiftPassSalt   string `json:"swift_pass_salt"`
	Account         string `json:"account"`
}

// CredStore persists Credential records keyed by access-key-id (S3) and
// by swift-user (Swift), both pointing at the same JSON blob.
type CredStore struct {
	db *buntdb.DB
}

func OpenCredStore(path string) (*CredStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &CredStore{db: db}, nil
}

func (s *CredStore) Close() error { return s.db.Close() }

func s3Key(accessKeyID string) string   { return fmt.Sprintf("s3:%s", accessKeyID) }
func swiftKey(user string) string       { return fmt.Sprintf("swift:%s", user) }

// Put stores cred, indexed under both its S3 access key (if set) and its
// Swift user (if set).
func (s *CredStore) Put(cred Credential) error {
	b, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		if cred.AccessKeyID != "" {
			if _, _, err := tx.Set(s3Key(cred.AccessKeyID), string(b), nil); err != nil {
				return err
			}
		}
		if cred.SwiftUser != "" {
			if _, _, err := tx.Set(swiftKey(cred.SwiftUser), string(b), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *CredStore) lookup(key string) (Credential, error) {
	var cred Credential
	err := s.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(key)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(val), &cred)
	})
	return cred, err
}

func (s *CredStore) LookupByAccessKey(accessKeyID string) (Credential, error) {
	return s.lookup(s3Key(accessKeyID))
}

func (s *CredStore) LookupBySwiftUser(user string) (Credential, error) {
	return s.lookup(swiftKey(user))
}
