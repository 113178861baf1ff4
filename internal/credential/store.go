package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/scrypt"
	"gopkg.in/yaml.v3"

	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

const (
	// keySize is the AES-256 key length in bytes.
	keySize = 32
	// nonceSize is the AES-GCM standard nonce length.
	nonceSize = 12
	// saltSize is the scrypt salt length.
	saltSize = 32

	// scrypt cost parameters, memory-hard against offline brute force.
	scryptN = 32768
	scryptR = 8
	scryptP = 1

	// storeFilePermission restricts the store file to its owner.
	storeFilePermission = 0o600
)

// storeFile is the on-disk YAML layout. Every token is encrypted
// individually with a key derived from the master passphrase and a
// per-entry salt.
type storeFile struct {
	Version int                  `yaml:"version"`
	Entries map[string]storeItem `yaml:"entries"`
}

type storeItem struct {
	Ciphertext string `yaml:"ciphertext"`
	Nonce      string `yaml:"nonce"`
	Salt       string `yaml:"salt"`
}

// FileStore is an encrypted, file-backed credential store keyed by backend
// id. It satisfies Provider for resolution and additionally supports writes.
type FileStore struct {
	path       string
	passphrase []byte
}

// NewFileStore creates a store over the YAML file at path, unlocked with
// passphrase. The file is created on first Put.
func NewFileStore(path string, passphrase []byte) *FileStore {
	return &FileStore{path: path, passphrase: passphrase}
}

// Resolve implements Provider.
func (s *FileStore) Resolve(backendID string) (Token, error) {
	file, err := s.load()
	if err != nil {
		return Token{}, err
	}

	item, ok := file.Entries[backendID]
	if !ok {
		return Token{}, types.NewError(types.CREDENTIAL_NOT_FOUND,
			fmt.Sprintf("no stored credential for backend %q", backendID))
	}

	plaintext, err := s.decrypt(item)
	if err != nil {
		return Token{}, err
	}

	return Token{Value: string(plaintext), Source: "store:" + s.path}, nil
}

// Sources implements Provider.
func (s *FileStore) Sources() []string {
	file, err := s.load()
	if err != nil {
		return []string{fmt.Sprintf("store:%s (unreadable)", s.path)}
	}
	out := make([]string, 0, len(file.Entries))
	for backendID := range file.Entries {
		out = append(out, fmt.Sprintf("%s -> store:%s", backendID, s.path))
	}
	return out
}

// Put encrypts and stores a token for backendID, replacing any previous
// entry.
func (s *FileStore) Put(backendID, token string) error {
	file, err := s.load()
	if err != nil {
		return err
	}

	item, err := s.encrypt([]byte(token))
	if err != nil {
		return err
	}

	if file.Entries == nil {
		file.Entries = make(map[string]storeItem)
	}
	file.Entries[backendID] = item
	return s.save(file)
}

// Delete removes the entry for backendID if present.
func (s *FileStore) Delete(backendID string) error {
	file, err := s.load()
	if err != nil {
		return err
	}
	delete(file.Entries, backendID)
	return s.save(file)
}

func (s *FileStore) load() (*storeFile, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &storeFile{Version: 1, Entries: make(map[string]storeItem)}, nil
	}
	if err != nil {
		return nil, types.WrapError(types.CREDENTIAL_INVALID,
			fmt.Sprintf("failed to read credential store %s", s.path), err)
	}

	var file storeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, types.WrapError(types.CREDENTIAL_INVALID,
			fmt.Sprintf("failed to parse credential store %s", s.path), err)
	}
	if file.Entries == nil {
		file.Entries = make(map[string]storeItem)
	}
	return &file, nil
}

func (s *FileStore) save(file *storeFile) error {
	data, err := yaml.Marshal(file)
	if err != nil {
		return types.WrapError(types.CREDENTIAL_INVALID, "failed to encode credential store", err)
	}
	if err := os.WriteFile(s.path, data, storeFilePermission); err != nil {
		return types.WrapError(types.CREDENTIAL_INVALID,
			fmt.Sprintf("failed to write credential store %s", s.path), err)
	}
	return nil
}

// encrypt seals plaintext with AES-256-GCM under a key derived from the
// passphrase and a fresh per-entry salt.
func (s *FileStore) encrypt(plaintext []byte) (storeItem, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return storeItem{}, types.WrapError(types.CREDENTIAL_INVALID, "failed to generate salt", err)
	}

	key, err := s.deriveKey(salt)
	if err != nil {
		return storeItem{}, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return storeItem{}, types.WrapError(types.CREDENTIAL_INVALID, "failed to initialize cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return storeItem{}, types.WrapError(types.CREDENTIAL_INVALID, "failed to initialize GCM", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return storeItem{}, types.WrapError(types.CREDENTIAL_INVALID, "failed to generate nonce", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)
	return storeItem{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Salt:       base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// decrypt opens a stored entry. A wrong passphrase or tampered entry fails
// authentication and surfaces as CREDENTIAL_DECRYPT_FAILED.
func (s *FileStore) decrypt(item storeItem) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(item.Ciphertext)
	if err != nil {
		return nil, types.WrapError(types.CREDENTIAL_DECRYPT, "malformed ciphertext encoding", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(item.Nonce)
	if err != nil {
		return nil, types.WrapError(types.CREDENTIAL_DECRYPT, "malformed nonce encoding", err)
	}
	salt, err := base64.StdEncoding.DecodeString(item.Salt)
	if err != nil {
		return nil, types.WrapError(types.CREDENTIAL_DECRYPT, "malformed salt encoding", err)
	}
	if len(nonce) != nonceSize || len(salt) != saltSize {
		return nil, types.NewError(types.CREDENTIAL_DECRYPT, "corrupt credential store entry")
	}

	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, types.WrapError(types.CREDENTIAL_DECRYPT, "failed to initialize cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, types.WrapError(types.CREDENTIAL_DECRYPT, "failed to initialize GCM", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, types.WrapError(types.CREDENTIAL_DECRYPT,
			"decryption failed (wrong passphrase or corrupt entry)", err)
	}
	return plaintext, nil
}

func (s *FileStore) deriveKey(salt []byte) ([]byte, error) {
	if len(s.passphrase) == 0 {
		return nil, types.NewError(types.CREDENTIAL_INVALID, "store passphrase cannot be empty")
	}
	key, err := scrypt.Key(s.passphrase, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, types.WrapError(types.CREDENTIAL_INVALID, "key derivation failed", err)
	}
	return key, nil
}
