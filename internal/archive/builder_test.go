package archive

import (
	stdzip "archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeka/zip"

	"github.com/Vitalii2594/zip-password-app/internal/common"
	"github.com/Vitalii2594/zip-password-app/internal/models"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func failingSource(name string) models.SourceFile {
	return models.SourceFile{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(failingReader{}), nil },
	}
}

func unopenableSource(name string) models.SourceFile {
	return models.SourceFile{
		Name: name,
		Open: func() (io.ReadCloser, error) { return nil, errors.New("permission denied") },
	}
}

func TestNewBuilder(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		encryption string
		wantName   string
		protects   bool
		wantErr    bool
	}{
		{"encrypted default method", ModeEncrypted, "", "protected-aes256", true, false},
		{"encrypted aes128", ModeEncrypted, "AES128", "protected-aes128", true, false},
		{"encrypted zipcrypto", ModeEncrypted, "zipcrypto", "protected-zipcrypto", true, false},
		{"best effort ignores method", ModeBestEffort, "whatever", "best-effort", false, false},
		{"unknown method", ModeEncrypted, "rot13", "", false, true},
		{"unknown mode", "plain", "", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBuilder(tt.mode, tt.encryption)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, b.Name())
			assert.Equal(t, tt.protects, b.Protects())
		})
	}
}

func TestProtectedBuilderRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("quarterly numbers "), 200)

	for _, method := range []string{"aes256", "aes192", "aes128"} {
		t.Run(method, func(t *testing.T) {
			b, err := NewProtectedBuilder(method)
			require.NoError(t, err)

			data, err := b.Build(context.Background(), models.BytesSource("report.docx", payload, ""), "s3cret!")
			require.NoError(t, err)

			r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
			require.NoError(t, err)
			require.Len(t, r.File, 1)

			f := r.File[0]
			assert.Equal(t, "report.docx", f.Name)
			assert.True(t, f.IsEncrypted())

			f.SetPassword("s3cret!")
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()

			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestProtectedBuilderZipCryptoMarksEntryEncrypted(t *testing.T) {
	b, err := NewProtectedBuilder("zipcrypto")
	require.NoError(t, err)

	data, err := b.Build(context.Background(), models.BytesSource("legacy.txt", []byte("old tools"), ""), "pw")
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, r.File, 1)
	assert.Equal(t, "legacy.txt", r.File[0].Name)
	assert.True(t, r.File[0].IsEncrypted())
}

func TestProtectedBuilderWrongPassword(t *testing.T) {
	b, err := NewProtectedBuilder("aes256")
	require.NoError(t, err)

	data, err := b.Build(context.Background(), models.BytesSource("a.txt", []byte("secret body"), ""), "s3cret!")
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	f := r.File[0]
	f.SetPassword("wrong")
	rc, err := f.Open()
	if err == nil {
		_, err = io.ReadAll(rc)
		rc.Close()
	}
	assert.Error(t, err, "extraction with the wrong password must fail")
}

func TestProtectedBuilderRequiresPassword(t *testing.T) {
	b, err := NewProtectedBuilder("")
	require.NoError(t, err)

	_, err = b.Build(context.Background(), models.BytesSource("a.txt", []byte("x"), ""), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestBestEffortBuilder(t *testing.T) {
	payload := bytes.Repeat([]byte("aaaaaaaaaaaaaaaa"), 1024)
	b := NewBestEffortBuilder()

	data, err := b.Build(context.Background(), models.BytesSource("photo.raw", payload, "image/x-raw"), "ignored")
	require.NoError(t, err)
	assert.Less(t, len(data), len(payload), "repetitive payload should compress")

	// The password has no effect: the archive opens without one.
	r, err := stdzip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, r.File, 1)
	assert.Equal(t, "photo.raw", r.File[0].Name)
	assert.Equal(t, stdzip.Deflate, r.File[0].Method)

	rc, err := r.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestBuildEmptyPayload(t *testing.T) {
	data, err := NewBestEffortBuilder().Build(context.Background(), models.BytesSource("empty.txt", nil, ""), "")
	require.NoError(t, err)

	r, err := stdzip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, r.File, 1)
	assert.Equal(t, uint64(0), r.File[0].UncompressedSize64)
}

func TestBuildErrors(t *testing.T) {
	protected, err := NewProtectedBuilder("aes256")
	require.NoError(t, err)
	builders := []Builder{protected, NewBestEffortBuilder()}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		file models.SourceFile
		want error
	}{
		{"read failure", context.Background(), failingSource("broken.bin"), common.ErrIO},
		{"open failure", context.Background(), unopenableSource("locked.bin"), common.ErrIO},
		{"no opener", context.Background(), models.SourceFile{Name: "ghost.bin"}, common.ErrIO},
		{"empty name", context.Background(), models.BytesSource("", []byte("x"), ""), common.ErrValidation},
		{"canceled", canceled, models.BytesSource("late.txt", []byte("x"), ""), common.ErrCanceled},
	}

	for _, b := range builders {
		for _, tt := range tests {
			t.Run(b.Name()+"/"+tt.name, func(t *testing.T) {
				data, err := b.Build(tt.ctx, tt.file, "pw")
				require.Error(t, err)
				assert.Nil(t, data)
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			})
		}
	}
}

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		want     string
	}{
		{"", ""},
		{"abc", StrengthWeak},
		{"abcde", StrengthWeak},
		{"abcdef", StrengthMedium},
		{"abcdefghijk", StrengthMedium},
		{"abcdefghijkl", StrengthStrong},
		{"пароль", StrengthMedium},
	}

	for _, tt := range tests {
		if got := PasswordStrength(tt.password); got != tt.want {
			t.Errorf("PasswordStrength(%q) = %q, want %q", tt.password, got, tt.want)
		}
	}
}
