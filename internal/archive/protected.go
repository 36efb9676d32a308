package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yeka/zip"

	"github.com/Vitalii2594/zip-password-app/internal/common"
	"github.com/Vitalii2594/zip-password-app/internal/models"
)

var encryptionMethods = map[string]zip.EncryptionMethod{
	"aes256":    zip.AES256Encryption,
	"aes192":    zip.AES192Encryption,
	"aes128":    zip.AES128Encryption,
	"zipcrypto": zip.StandardEncryption,
}

// ProtectedBuilder encrypts the single entry with the request password.
type ProtectedBuilder struct {
	method     zip.EncryptionMethod
	methodName string
}

// NewProtectedBuilder accepts aes256 (default when empty), aes192, aes128 or
// zipcrypto. zipcrypto is the legacy scheme and is weak; it exists for
// consumers whose tools cannot open WinZip AES entries.
func NewProtectedBuilder(encryption string) (*ProtectedBuilder, error) {
	name := strings.ToLower(strings.TrimSpace(encryption))
	if name == "" {
		name = "aes256"
	}
	method, ok := encryptionMethods[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown zip encryption %q", common.ErrValidation, encryption)
	}
	return &ProtectedBuilder{method: method, methodName: name}, nil
}

func (b *ProtectedBuilder) Name() string   { return "protected-" + b.methodName }
func (b *ProtectedBuilder) Protects() bool { return true }

func (b *ProtectedBuilder) Build(ctx context.Context, file models.SourceFile, password string) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrValidation)
	}

	data, err := readSource(ctx, file)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Encrypt(file.Name, password, b.method)
	if err != nil {
		return nil, fmt.Errorf("%w: create entry %s: %v", common.ErrEncoding, file.Name, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: write entry %s: %v", common.ErrEncoding, file.Name, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalize archive for %s: %v", common.ErrEncoding, file.Name, err)
	}

	return buf.Bytes(), nil
}
