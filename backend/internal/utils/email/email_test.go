package email

import (
	"strings"
	"testing"
	"time"

	"github.com/itchan-dev/askchan/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmail() *Email {
	e := New(&config.Email{SMTPServer: "smtp.example.com", SMTPPort: 587, Username: "noreply@askchan.test", SenderName: "Askchan"}, "askchan.test")
	e.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return e
}

func headerBlock(t *testing.T, msg []byte) (map[string]string, string) {
	t.Helper()
	head, body, found := strings.Cut(string(msg), "\r\n\r\n")
	require.True(t, found, "headers must be separated from the body")
	headers := map[string]string{}
	for _, line := range strings.Split(head, "\r\n") {
		name, value, ok := strings.Cut(line, ": ")
		require.True(t, ok, "malformed header %q", line)
		headers[name] = value
	}
	return headers, body
}

func TestBuildMessage(t *testing.T) {
	e := newTestEmail()

	t.Run("with reply-to", func(t *testing.T) {
		msg := e.buildMessage("bob@example.com", "reply+abcdef123456@askchan.test", "New answer to your question", "text")
		headers, body := headerBlock(t, msg)

		assert.Equal(t, "bob@example.com", headers["To"])
		assert.Equal(t, "reply+abcdef123456@askchan.test", headers["Reply-To"])
		assert.Equal(t, "Askchan <noreply@askchan.test>", headers["From"])
		assert.Equal(t, "Tue, 02 Jan 2024 03:04:05 +0000", headers["Date"])
		assert.True(t, strings.HasSuffix(headers["Message-ID"], "@askchan.test>"))
		assert.Equal(t, "text", body)
	})

	t.Run("without reply-to", func(t *testing.T) {
		headers, _ := headerBlock(t, e.buildMessage("bob@example.com", "", "subject", "text"))
		_, ok := headers["Reply-To"]
		assert.False(t, ok)
	})

	t.Run("non-ascii subject is encoded", func(t *testing.T) {
		headers, _ := headerBlock(t, e.buildMessage("bob@example.com", "", "Ответ", "text"))
		assert.True(t, strings.HasPrefix(headers["Subject"], "=?utf-8?q?"))
	})

	t.Run("message ids are unique", func(t *testing.T) {
		a, _ := headerBlock(t, e.buildMessage("bob@example.com", "", "s", "b"))
		b, _ := headerBlock(t, e.buildMessage("bob@example.com", "", "s", "b"))
		assert.NotEqual(t, a["Message-ID"], b["Message-ID"])
	})
}
