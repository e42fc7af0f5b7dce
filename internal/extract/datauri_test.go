package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfcosta/listings-tracker/internal/common"
)

func TestParseDocumentURI(t *testing.T) {
	t.Run("valid image", func(t *testing.T) {
		doc, err := ParseDocumentURI("data:image/png;base64,aGVsbG8=")
		require.NoError(t, err)
		assert.Equal(t, "image/png", doc.MIMEType)
		assert.Equal(t, len("aGVsbG8="), doc.PayloadLen)
	})

	t.Run("valid pdf", func(t *testing.T) {
		doc, err := ParseDocumentURI("data:application/pdf;base64,JVBERi0=")
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", doc.MIMEType)
	})

	t.Run("mime is lowercased", func(t *testing.T) {
		doc, err := ParseDocumentURI("data:IMAGE/JPEG;base64,aGVsbG8=")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", doc.MIMEType)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseDocumentURI("   ")
		require.Error(t, err)
		assert.True(t, common.IsKind(err, common.KindInvalidInput))
	})

	t.Run("not a data uri", func(t *testing.T) {
		_, err := ParseDocumentURI("https://example.com/listing.pdf")
		require.Error(t, err)
		assert.True(t, common.IsKind(err, common.KindInvalidInput))
	})

	t.Run("missing base64 marker", func(t *testing.T) {
		_, err := ParseDocumentURI("data:image/png,rawbytes")
		require.Error(t, err)
		assert.True(t, common.IsKind(err, common.KindInvalidInput))
	})

	t.Run("unsupported mime", func(t *testing.T) {
		_, err := ParseDocumentURI("data:video/mp4;base64,aGVsbG8=")
		require.Error(t, err)
		assert.True(t, common.IsKind(err, common.KindInvalidInput))
		assert.Contains(t, err.Error(), "video/mp4")
	})

}
